package engine

// State tracks the orchestrator through one run.
type State int

const (
	StateIdle State = iota
	StateRegistered
	StateInitialized
	StateExtracting
	StateMergingState
	StateValidating
	StateAggregating
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRegistered:
		return "registered"
	case StateInitialized:
		return "initialized"
	case StateExtracting:
		return "extracting"
	case StateMergingState:
		return "merging-state"
	case StateValidating:
		return "validating"
	case StateAggregating:
		return "aggregating"
	case StateFinalized:
		return "finalized"
	}
	return "unknown"
}

// globalState is the orchestrator-owned phase-B output. It is mutable only
// while the orchestrator builds it; Freeze makes any later write a
// programming error.
type globalState struct {
	entries map[string]any
	frozen  bool
}

func newGlobalState() *globalState {
	return &globalState{entries: make(map[string]any)}
}

// Get returns the merged entry for a validator id.
func (g *globalState) Get(validatorID string) (any, bool) {
	v, ok := g.entries[validatorID]
	return v, ok
}

func (g *globalState) set(validatorID string, entry any) {
	if g.frozen {
		panic("engine: write to frozen global state")
	}
	g.entries[validatorID] = entry
}

func (g *globalState) freeze() {
	g.frozen = true
}
