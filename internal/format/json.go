package format

import (
	"encoding/json"
	"io"
	"time"

	"github.com/storylint/storylint/internal/issue"
)

// Meta describes the run that produced a report.
type Meta struct {
	Version     string `json:"version"`
	RunID       string `json:"runId"`
	GeneratedAt string `json:"generatedAt"`
	FileCount   int    `json:"fileCount"`
	ElapsedMS   int64  `json:"elapsedMs"`
}

// Report is the machine-readable result document.
type Report struct {
	Meta   Meta             `json:"meta"`
	Result *issue.Aggregate `json:"result"`
}

// JSON renders an aggregate as an indented JSON report.
type JSON struct {
	w       io.Writer
	version string
	runID   string

	// Now is swappable for reproducible output.
	Now func() time.Time
}

func NewJSON(w io.Writer, version, runID string) *JSON {
	return &JSON{w: w, version: version, runID: runID, Now: time.Now}
}

func (j *JSON) Render(agg *issue.Aggregate, fileCount int, elapsed time.Duration) error {
	report := Report{
		Meta: Meta{
			Version:     j.version,
			RunID:       j.runID,
			GeneratedAt: j.Now().UTC().Format(time.RFC3339),
			FileCount:   fileCount,
			ElapsedMS:   elapsed.Milliseconds(),
		},
		Result: agg,
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
