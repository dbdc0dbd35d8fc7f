package issue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity defines the importance of an issue. The zero value is info;
// higher values are more severe.
type Severity uint8

const (
	// SeverityInfo is for informational issues.
	SeverityInfo Severity = iota
	// SeverityWarning is for issues worth fixing that do not fail a run.
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "unknown"
}

// MarshalJSON serializes the severity as its lowercase name so that
// downstream consumers see stable strings instead of ordinals.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity converts a severity name to its value. Matching is
// case-insensitive.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "info":
		return SeverityInfo, nil
	case "warning":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}
	return SeverityInfo, fmt.Errorf("unknown severity: %q", name)
}
