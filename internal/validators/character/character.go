// Package character implements the character-consistency validator. Phase A
// extracts name mentions, alias declarations and pronoun evidence from each
// file; phase B merges them into a per-run character state; phase C reports
// spelling inconsistencies, missing introductions, pronoun conflicts and
// unconfirmed nicknames.
package character

import (
	"fmt"
	"strings"

	"github.com/storylint/storylint/internal/validator"
)

// ValidatorID is the stable id of this validator.
const ValidatorID = "character"

// Issue codes owned by this validator.
const (
	CodeNameInconsistency    = "CHAR001"
	CodeIntroductionMissing  = "CHAR002"
	CodePronounInconsistency = "CHAR003"
	CodeAliasUnconfirmed     = "CHAR004"
)

// defaultRetrospectiveMarkers is the conservative built-in list; the
// configuration extends it.
var defaultRetrospectiveMarkers = []string{
	"remembered", "used to", "years ago", "back when",
}

// AliasDecl is one configured canonical/alias group.
type AliasDecl struct {
	Canonical string   `yaml:"canonical"`
	Aliases   []string `yaml:"aliases"`
}

// Options configure the character validator.
type Options struct {
	// Aliases declares canonical names and their accepted aliases.
	Aliases []AliasDecl `yaml:"aliases"`

	// Ignore lists names to skip entirely.
	Ignore []string `yaml:"ignore"`

	// Strict enables CHAR002 for mentions that precede a character's
	// introduction in file order.
	Strict bool `yaml:"strict"`

	// RetrospectiveMarkers extends the built-in retrospective marker list.
	RetrospectiveMarkers []string `yaml:"retrospectiveMarkers"`
}

// Validator is the character-consistency validator. One instance serves one
// run.
type Validator struct {
	opts    Options
	ignore  map[string]bool
	markers []string
}

func New() validator.Validator {
	return &Validator{}
}

// Factory adapts New to the engine's factory contract.
func Factory() validator.Validator { return New() }

func (v *Validator) ID() string { return ValidatorID }

func (v *Validator) Capabilities() validator.Capabilities {
	return validator.Capabilities{
		Extensions: []string{".md", ".markdown"},
		Extract:    true,
		Validate:   true,
	}
}

// Initialize decodes and validates the option map.
func (v *Validator) Initialize(ctx *validator.Context) error {
	if err := validator.DecodeOptions(ctx.Config, &v.opts); err != nil {
		return fmt.Errorf("invalid character validator options: %w", err)
	}
	for _, decl := range v.opts.Aliases {
		if strings.TrimSpace(decl.Canonical) == "" {
			return fmt.Errorf("character alias declaration requires a canonical name")
		}
	}
	v.ignore = make(map[string]bool, len(v.opts.Ignore))
	for _, name := range v.opts.Ignore {
		v.ignore[strings.ToLower(strings.TrimSpace(name))] = true
	}
	v.markers = append([]string{}, defaultRetrospectiveMarkers...)
	v.markers = append(v.markers, v.opts.RetrospectiveMarkers...)
	return nil
}

func (v *Validator) ignored(name string) bool {
	return v.ignore[strings.ToLower(name)]
}
