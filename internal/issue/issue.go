// Package issue defines the value types every validator reports with: a
// single structured finding, its severity, and the aggregate result a run
// produces. Issues are immutable once emitted; the aggregator copies what it
// needs and never mutates its input.
package issue

// Engine-level issue codes. Validator-owned codes (CHAR001, LINK002, ...)
// live with their validators; these cover failures the orchestrator itself
// reports. Each code is stable so downstream tools can filter on it.
const (
	CodeEncodingError    = "encoding-error"
	CodeFrontMatterError = "front-matter-error"
	CodeParseError       = "parse-error"
	CodeInternalError    = "internal-error"
	CodeCancelled        = "cancelled"
)

// Location points at a position in a project file. Lines and columns are
// 1-based; zero means unknown.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// Issue is a single finding reported by a validator or by the engine.
type Issue struct {
	Code      string   `json:"code"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	File      string   `json:"file,omitempty"`
	Line      int      `json:"line,omitempty"`
	Column    int      `json:"column,omitempty"`
	EndLine   int      `json:"endLine,omitempty"`
	EndColumn int      `json:"endColumn,omitempty"`

	// Validator is the id of the validator that produced the issue, or
	// "engine" for orchestrator-level issues.
	Validator string `json:"validator"`

	// Suggestion is an optional human-readable remediation. It is reported,
	// never applied.
	Suggestion string `json:"suggestion,omitempty"`

	// RelatedLocations point at other places that explain the issue, such as
	// the earlier spelling a name conflicts with.
	RelatedLocations []Location `json:"relatedLocations,omitempty"`
}

// Less orders issues by the aggregate sort key: severity (most severe
// first), then file, line, column, validator and code ascending.
func (i Issue) Less(other Issue) bool {
	if i.Severity != other.Severity {
		return i.Severity > other.Severity
	}
	if i.File != other.File {
		return i.File < other.File
	}
	if i.Line != other.Line {
		return i.Line < other.Line
	}
	if i.Column != other.Column {
		return i.Column < other.Column
	}
	if i.Validator != other.Validator {
		return i.Validator < other.Validator
	}
	return i.Code < other.Code
}
