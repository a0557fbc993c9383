package model

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// RawWarp is a warp declaration before normalization. Exactly one of the
// Follow fields is populated, matching the three declaration shapes: a
// single path, an ordered path list, or an explicit symbol map.
type RawWarp struct {
	FollowSingle string
	FollowList   []string
	FollowMap    map[string]string

	Rules []RawWarpRule
}

// RawWarpRule pairs an unparsed rule key with its override payload. The key
// is either one or more literal follower values (comma separated, `|` for
// per-position alternatives) or a verbatim boolean expression.
type RawWarpRule struct {
	Key      string
	Override WarpEffect
}

// WarpSpec is the compiled warp declaration of one element: a symbol table
// of followed paths plus an ordered rule list. Rules are evaluated in
// declaration order and the first match wins; when none matches the
// element's base spec applies unchanged.
type WarpSpec struct {
	Element string
	// Follow maps symbolic names (f1, f2, ...) to followed element paths.
	Follow map[string]string
	// Symbols holds the symbolic names in positional order.
	Symbols []string
	Rules   []WarpRule
}

// WarpRule is one compiled (condition, override) pair.
type WarpRule struct {
	Cond     Cond
	Override WarpEffect
}

// WarpEffect is a partial property override. Zero fields leave the base
// spec untouched; Unavailable makes the element absent altogether.
type WarpEffect struct {
	Unavailable bool

	ValueType   cty.Type  // cty.NilType: keep base
	Default     cty.Value // cty.NilVal: keep base
	Choice      []string  // nil: keep base
	ConfigClass string    // empty: keep base

	Permission *Permission
	Level      *Level
	Status     *Status
}

// IsZero reports whether the effect overrides nothing at all.
func (e WarpEffect) IsZero() bool {
	return !e.Unavailable &&
		e.ValueType == cty.NilType &&
		e.Default == cty.NilVal &&
		e.Choice == nil &&
		e.ConfigClass == "" &&
		e.Permission == nil &&
		e.Level == nil &&
		e.Status == nil
}

// Cond is a node of the closed warp condition grammar: equality of a
// follower symbol to a literal, conjunction, and disjunction. Conditions
// are built once at compile time and evaluated directly against follower
// values; no expression source is ever synthesized at runtime.
type Cond interface {
	// Eval reports whether the condition holds for the given follower
	// values. A missing follower is represented by the empty string.
	Eval(vals map[string]string) bool
	String() string
}

// CondEq holds when follower Sym currently has the literal value.
type CondEq struct {
	Sym     string
	Literal string
}

func (c CondEq) Eval(vals map[string]string) bool {
	return vals[c.Sym] == c.Literal
}

func (c CondEq) String() string {
	return fmt.Sprintf("%s == '%s'", c.Sym, c.Literal)
}

// CondAnd holds when all terms hold.
type CondAnd struct {
	Terms []Cond
}

func (c CondAnd) Eval(vals map[string]string) bool {
	for _, t := range c.Terms {
		if !t.Eval(vals) {
			return false
		}
	}
	return true
}

func (c CondAnd) String() string {
	return joinCond(c.Terms, " and ")
}

// CondOr holds when any term holds.
type CondOr struct {
	Terms []Cond
}

func (c CondOr) Eval(vals map[string]string) bool {
	for _, t := range c.Terms {
		if t.Eval(vals) {
			return true
		}
	}
	return false
}

func (c CondOr) String() string {
	return joinCond(c.Terms, " or ")
}

func joinCond(terms []Cond, sep string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// CondSymbols returns the distinct follower symbols referenced by a
// condition, in first-seen order.
func CondSymbols(c Cond) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Cond)
	walk = func(c Cond) {
		switch v := c.(type) {
		case CondEq:
			if !seen[v.Sym] {
				seen[v.Sym] = true
				out = append(out, v.Sym)
			}
		case CondAnd:
			for _, t := range v.Terms {
				walk(t)
			}
		case CondOr:
			for _, t := range v.Terms {
				walk(t)
			}
		}
	}
	walk(c)
	return out
}
