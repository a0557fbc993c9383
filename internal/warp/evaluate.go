package warp

import (
	"context"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/ctxlog"
	"github.com/cfgtree/cfgtree/internal/model"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ValueReader reads the current value of an element by path. It is the only
// view of the tree the evaluator gets, which keeps evaluation read-only by
// construction. A follower that does not yet hold a value is reported with
// ok=false, not an error; a path that names an element the model does not
// declare fails with PathNotFound.
type ValueReader interface {
	ReadPath(ctx context.Context, path string) (cty.Value, bool, error)
}

// Resolve evaluates a compiled warp spec against the follower values read
// through r. It returns the override of the first rule whose condition
// holds, in declaration order. When no rule matches it returns a zero
// effect and matched=false: the element's base spec applies.
func Resolve(ctx context.Context, spec *model.WarpSpec, r ValueReader) (model.WarpEffect, bool, error) {
	vals := make(map[string]string, len(spec.Follow))
	for sym, path := range spec.Follow {
		v, ok, err := r.ReadPath(ctx, path)
		if err != nil {
			return model.WarpEffect{}, false, err
		}
		if !ok {
			// A missing or unset follower is the distinct empty literal.
			vals[sym] = ""
			continue
		}
		lit, err := literalString(v)
		if err != nil {
			return model.WarpEffect{}, false, cmerr.Newf(cmerr.InvalidValue,
				"follower %s (%s) holds a value unusable in a warp condition: %v", sym, path, err).
				WithElement(spec.Element).WithPath(path)
		}
		vals[sym] = lit
	}

	for i, rule := range spec.Rules {
		if rule.Cond.Eval(vals) {
			ctxlog.FromContext(ctx).Debug("warp rule matched",
				"element", spec.Element, "rule", i, "cond", rule.Cond.String())
			return rule.Override, true, nil
		}
	}

	ctxlog.FromContext(ctx).Debug("no warp rule matched, base spec applies",
		"element", spec.Element)
	return model.WarpEffect{}, false, nil
}

// literalString renders a follower value as the string literal the
// condition grammar compares against.
func literalString(v cty.Value) (string, error) {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return "", nil
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", err
	}
	return s.AsString(), nil
}
