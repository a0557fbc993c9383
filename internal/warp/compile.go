package warp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/model"
)

// Compile normalizes a raw warp declaration into a model.WarpSpec.
//
// Follow normalization: a single path becomes {f1: path}, an ordered list
// becomes {f1: p1, f2: p2, ...}, an explicit symbol map passes through with
// its symbols in sorted order.
//
// Rule normalization depends on the follower count. With one follower a
// rule key is a literal value or a comma-separated set of alternatives
// (compiled to a disjunction). With several followers the key must supply
// one literal per follower, comma-separated and combined with conjunction;
// `|` separates per-position alternatives. A key that already contains a
// comparison operator is parsed verbatim as a boolean expression over the
// follower symbols, whatever the arity.
func Compile(element string, raw *model.RawWarp) (*model.WarpSpec, error) {
	if raw == nil {
		return nil, nil
	}

	spec := &model.WarpSpec{Element: element}

	switch {
	case raw.FollowSingle != "":
		spec.Follow = map[string]string{"f1": raw.FollowSingle}
		spec.Symbols = []string{"f1"}
	case len(raw.FollowList) > 0:
		spec.Follow = make(map[string]string, len(raw.FollowList))
		for i, path := range raw.FollowList {
			sym := fmt.Sprintf("f%d", i+1)
			spec.Follow[sym] = path
			spec.Symbols = append(spec.Symbols, sym)
		}
	case len(raw.FollowMap) > 0:
		spec.Follow = make(map[string]string, len(raw.FollowMap))
		for sym, path := range raw.FollowMap {
			if sym == "" || path == "" {
				return nil, cmerr.New(cmerr.BadWarpValue, "follow entries must have a symbol and a path").
					WithElement(element)
			}
			spec.Follow[sym] = path
		}
		spec.Symbols = sortedSymbols(raw.FollowMap)
	default:
		return nil, cmerr.New(cmerr.BadWarpValue, "warp declaration has no follow paths").
			WithElement(element)
	}

	for _, rr := range raw.Rules {
		cond, err := compileRuleKey(element, spec, rr.Key)
		if err != nil {
			return nil, err
		}
		spec.Rules = append(spec.Rules, model.WarpRule{Cond: cond, Override: rr.Override})
	}

	return spec, nil
}

func compileRuleKey(element string, spec *model.WarpSpec, key string) (model.Cond, error) {
	// A key carrying a comparison operator is already a boolean expression.
	if strings.Contains(key, "==") {
		cond, err := parseCondExpr(key)
		if err != nil {
			return nil, cmerr.Newf(cmerr.BadWarpValue, "bad rule expression %q: %v", key, err).
				WithElement(element)
		}
		for _, sym := range model.CondSymbols(cond) {
			if _, ok := spec.Follow[sym]; !ok {
				return nil, cmerr.Newf(cmerr.BadWarpValue, "rule %q references symbol %q which is not followed", key, sym).
					WithElement(element)
			}
		}
		return cond, nil
	}

	parts := strings.Split(key, ",")

	if len(spec.Symbols) == 1 {
		// A key set on a single follower is a disjunction of alternatives.
		sym := spec.Symbols[0]
		if len(parts) == 1 {
			return model.CondEq{Sym: sym, Literal: parts[0]}, nil
		}
		terms := make([]model.Cond, len(parts))
		for i, p := range parts {
			terms[i] = model.CondEq{Sym: sym, Literal: p}
		}
		return model.CondOr{Terms: terms}, nil
	}

	// Legacy positional form: one key per follower, conjoined.
	if len(parts) != len(spec.Symbols) {
		return nil, cmerr.Newf(cmerr.BadWarpArity,
			"rule %q supplies %d values for %d followed elements", key, len(parts), len(spec.Symbols)).
			WithElement(element)
	}
	terms := make([]model.Cond, len(parts))
	for i, p := range parts {
		terms[i] = positionCond(spec.Symbols[i], p)
	}
	return model.CondAnd{Terms: terms}, nil
}

// positionCond compiles one positional key: `|` separates alternative
// values for that follower.
func positionCond(sym, key string) model.Cond {
	alts := strings.Split(key, "|")
	if len(alts) == 1 {
		return model.CondEq{Sym: sym, Literal: alts[0]}
	}
	terms := make([]model.Cond, len(alts))
	for i, a := range alts {
		terms[i] = model.CondEq{Sym: sym, Literal: a}
	}
	return model.CondOr{Terms: terms}
}

// Insertion order of HCL object keys is not observable once decoded, so
// the positional order of an explicit symbol map is its sorted symbol
// order.
func sortedSymbols(follow map[string]string) []string {
	syms := make([]string, 0, len(follow))
	for sym := range follow {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}
