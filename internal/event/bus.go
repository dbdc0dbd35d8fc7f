// Package event provides the in-process publish/subscribe bus the engine
// uses to report progress. Delivery is synchronous and single-threaded:
// handlers run on the publisher's goroutine in registration order. A panic
// in one handler is caught and does not block its siblings.
package event

import (
	"sync"
	"time"

	"github.com/storylint/storylint/internal/issue"
)

// Type identifies an event kind.
type Type string

const (
	RunStart       Type = "run:start"
	RunComplete    Type = "run:complete"
	FileParsed     Type = "file:parsed"
	FileExtracted  Type = "file:extracted"
	FileValidated  Type = "file:validated"
	ValidatorPhase Type = "validator:phase"
	Error          Type = "error"
)

// Event carries the payload for one bus publication. Only the fields
// meaningful for the event type are populated.
type Event struct {
	Type      Type
	RunID     string
	File      string
	Validator string

	// Phase names the pipeline phase for ValidatorPhase events:
	// "extract", "merge", "validate" or "finalize".
	Phase string

	// FileCount is set on RunStart; IssueCount on FileValidated.
	FileCount  int
	IssueCount int

	// Elapsed carries per-phase timing on ValidatorPhase and the total run
	// time on RunComplete.
	Elapsed time.Duration

	// Result is set on RunComplete.
	Result *issue.Aggregate

	// Err and Context are set on Error events.
	Err     error
	Context string
}

// Handler receives published events.
type Handler func(Event)

// ErrorLogger receives handler panics so a broken subscriber surfaces in
// diagnostics instead of dying silently.
type ErrorLogger interface {
	Warnf(format string, args ...any)
}

// Bus is a typed synchronous event bus.
type Bus struct {
	mu       sync.Mutex
	handlers map[Type][]Handler
	all      []Handler
	log      ErrorLogger
}

func NewBus(log ErrorLogger) *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for one event type. Handlers run in
// registration order.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers the event to all matching handlers synchronously.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	matched := make([]Handler, 0, len(b.handlers[ev.Type])+len(b.all))
	matched = append(matched, b.handlers[ev.Type]...)
	matched = append(matched, b.all...)
	b.mu.Unlock()

	for _, h := range matched {
		b.deliver(h, ev)
	}
}

func (b *Bus) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil && b.log != nil {
			b.log.Warnf("event handler panicked on %s: %v", ev.Type, r)
		}
	}()
	h(ev)
}
