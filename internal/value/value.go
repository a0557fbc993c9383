// Package value implements the scalar value store that leaf elements
// delegate to: typed storage via cty, default-value resolution, choice
// checking, and the provenance tag that drives dump filtering.
package value

import (
	"fmt"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Provenance tags where a leaf's current value comes from.
type Provenance int

const (
	// ProvNone: never written and no default declared.
	ProvNone Provenance = iota
	// ProvDefault: never written, the declared default applies.
	ProvDefault
	// ProvPreset: written while the loader was in preset mode.
	ProvPreset
	// ProvCustom: written by a regular (custom mode) mutation.
	ProvCustom
)

var provenanceNames = map[Provenance]string{
	ProvNone:    "none",
	ProvDefault: "default",
	ProvPreset:  "preset",
	ProvCustom:  "custom",
}

func (p Provenance) String() string {
	if s, ok := provenanceNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Provenance(%d)", int(p))
}

// Spec is the type constraint payload of one leaf.
type Spec struct {
	// Type the stored value is converted to. cty.NilType means cty.String.
	Type cty.Type
	// Default applies while the leaf is unwritten. cty.NilVal means none.
	Default cty.Value
	// Choice, when non-empty, restricts the value's string rendering to
	// the listed alternatives.
	Choice []string
}

func (s Spec) effectiveType() cty.Type {
	if s.Type == cty.NilType {
		return cty.String
	}
	return s.Type
}

// Store holds one leaf's current value.
type Store struct {
	spec Spec
	val  cty.Value
	prov Provenance // ProvPreset or ProvCustom once written
}

// NewStore creates an unwritten store for the given constraint payload.
func NewStore(spec Spec) *Store {
	return &Store{spec: spec}
}

// Spec returns the constraint payload the store was built with.
func (s *Store) Spec() Spec { return s.spec }

// Set converts v to the leaf's type, checks it against the choice list and
// records it with the given provenance (ProvPreset or ProvCustom).
func (s *Store) Set(v cty.Value, prov Provenance) error {
	converted, err := convert.Convert(v, s.spec.effectiveType())
	if err != nil {
		return cmerr.Newf(cmerr.InvalidValue, "cannot convert to %s: %v",
			s.spec.effectiveType().FriendlyName(), err)
	}
	if err := s.checkChoice(converted); err != nil {
		return err
	}
	s.val = converted
	s.prov = prov
	return nil
}

// SetString parses a raw textual value, as written in a step string, and
// stores it.
func (s *Store) SetString(raw string, prov Provenance) error {
	v, err := convert.Convert(cty.StringVal(raw), s.spec.effectiveType())
	if err != nil {
		return cmerr.Newf(cmerr.InvalidValue, "%q is not a valid %s: %v",
			raw, s.spec.effectiveType().FriendlyName(), err)
	}
	if err := s.checkChoice(v); err != nil {
		return err
	}
	s.val = v
	s.prov = prov
	return nil
}

func (s *Store) checkChoice(v cty.Value) error {
	if len(s.spec.Choice) == 0 {
		return nil
	}
	rendered, err := renderString(v)
	if err != nil {
		return cmerr.Newf(cmerr.InvalidValue, "cannot check choice list: %v", err)
	}
	for _, c := range s.spec.Choice {
		if rendered == c {
			return nil
		}
	}
	return cmerr.Newf(cmerr.InvalidValue, "%q is not in the choice list %v", rendered, s.spec.Choice)
}

// Value returns the effective value: the stored one if written, otherwise
// the declared default, otherwise cty.NilVal.
func (s *Store) Value() cty.Value {
	if s.IsSet() {
		return s.val
	}
	return s.spec.Default
}

// IsSet reports whether the leaf has been explicitly written.
func (s *Store) IsSet() bool {
	return s.prov == ProvPreset || s.prov == ProvCustom
}

// Provenance reports where the effective value comes from.
func (s *Store) Provenance() Provenance {
	if s.IsSet() {
		return s.prov
	}
	if s.spec.Default != cty.NilVal {
		return ProvDefault
	}
	return ProvNone
}

// Clear forgets the written value; the default (if any) applies again.
func (s *Store) Clear() {
	s.val = cty.NilVal
	s.prov = ProvNone
}

// String renders the effective value for dumps and warp following. An
// unwritten, defaultless leaf renders as the empty string.
func (s *Store) String() string {
	v := s.Value()
	if v == cty.NilVal {
		return ""
	}
	rendered, err := renderString(v)
	if err != nil {
		// Specs only admit primitive leaf types, so rendering them as
		// strings cannot fail once Set accepted the value.
		return ""
	}
	return rendered
}

func renderString(v cty.Value) (string, error) {
	if v.IsNull() || !v.IsKnown() {
		return "", nil
	}
	converted, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", err
	}
	return converted.AsString(), nil
}
