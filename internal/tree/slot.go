package tree

import (
	"context"
	"strings"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/ctxlog"
	"github.com/cfgtree/cfgtree/internal/model"
	"github.com/cfgtree/cfgtree/internal/treepath"
	"github.com/cfgtree/cfgtree/internal/warp"
	"github.com/zclconf/go-cty/cty"
)

// WarpedSlot is the placeholder for a warped element. It holds the
// followed elements by canonical path only, never by reference: warp
// targets may be siblings, ancestors or unrelated subtrees and ownership
// stays strictly top-down.
//
// The slot memoizes its last evaluation and is invalidated when a followed
// value's write completes (push); a stale slot also re-resolves on its next
// read (pull). Either way one follower change costs one evaluation.
type WarpedSlot struct {
	tree  *Tree
	owner *Node
	base  *model.ElementSpec
	path  treepath.Path

	// spec is the compiled warp spec with follower paths rewritten to
	// canonical absolute form.
	spec *model.WarpSpec

	evaluated bool
	dirty     bool
	resolving bool
	eff       model.WarpEffect
	inner     Element // nil while the element is warped out
}

func newWarpedSlot(ctx context.Context, owner *Node, base *model.ElementSpec, path treepath.Path) (*WarpedSlot, error) {
	spec := *base.Warp
	spec.Follow = make(map[string]string, len(base.Warp.Follow))
	for sym, raw := range base.Warp.Follow {
		// Relative paths are declared from the warped element itself, so
		// one "-" climbs to the owning node.
		abs, err := absolutize(raw, path)
		if err != nil {
			return nil, cmerr.Newf(cmerr.BadWarpValue, "follow path %q: %v", raw, err).
				WithElement(base.Name).WithPath(path.String())
		}
		spec.Follow[sym] = abs
	}

	s := &WarpedSlot{
		tree:  owner.tree,
		owner: owner,
		base:  base,
		path:  path,
		spec:  &spec,
	}
	owner.tree.slots = append(owner.tree.slots, s)
	return s, nil
}

// absolutize resolves a follower path declared relative to the warped
// element into canonical absolute form.
func absolutize(raw string, base treepath.Path) (string, error) {
	p, err := treepath.Parse(raw)
	if err != nil {
		return "", err
	}
	if p.Absolute {
		return p.String(), nil
	}
	if p.Ups > len(base.Steps) {
		return "", cmerr.Newf(cmerr.BadWarpValue, "path climbs %d levels above the root", p.Ups-len(base.Steps))
	}
	steps := make([]treepath.Step, 0, len(base.Steps)-p.Ups+len(p.Steps))
	steps = append(steps, base.Steps[:len(base.Steps)-p.Ups]...)
	steps = append(steps, p.Steps...)
	return treepath.Path{Absolute: true, Steps: steps}.String(), nil
}

func (s *WarpedSlot) Kind() model.ElementType  { return s.base.Type }
func (s *WarpedSlot) Spec() *model.ElementSpec { return s.base }
func (s *WarpedSlot) PathString() string       { return s.path.String() }

// follows reports whether the slot's warp follows the given canonical path
// or an entry under it: assigning a whole collection rewrites its entries,
// so followers of individual entries go stale too.
func (s *WarpedSlot) follows(path string) bool {
	for _, fp := range s.spec.Follow {
		if fp == path || strings.HasPrefix(fp, path+":") {
			return true
		}
	}
	return false
}

// Resolve returns the slot's current effective element, re-evaluating the
// warp rules when a followed value changed since the last evaluation. It
// returns nil when the effective spec marks the element unavailable.
func (s *WarpedSlot) Resolve(ctx context.Context) (Element, error) {
	if s.evaluated && !s.dirty {
		return s.inner, nil
	}
	if s.resolving {
		return nil, cmerr.New(cmerr.BadWarpValue, "circular warp dependency").
			WithElement(s.base.Name).WithPath(s.path.String())
	}
	s.resolving = true
	defer func() { s.resolving = false }()

	eff, _, err := warp.Resolve(ctx, s.spec, s.tree)
	if err != nil {
		return nil, err
	}

	if s.evaluated && effectEqual(s.eff, eff) {
		s.dirty = false
		return s.inner, nil
	}

	prev := s.inner
	if eff.Unavailable {
		s.inner = nil
	} else {
		effSpec := s.base.WithEffect(eff)
		effSpec.Warp = nil // the slot owns the warp, the inner element is plain
		inner, err := s.tree.newConcrete(ctx, effSpec, s.path)
		if err != nil {
			return nil, err
		}
		carryLeafValue(prev, inner)
		s.inner = inner
	}

	ctxlog.FromContext(ctx).Debug("warped slot re-resolved",
		"path", s.path.String(), "unavailable", eff.Unavailable)
	s.eff = eff
	s.evaluated = true
	s.dirty = false
	return s.inner, nil
}

// carryLeafValue keeps a written leaf value across a warp transition when
// the new effective spec still accepts it; otherwise the value is dropped
// and the new default applies.
func carryLeafValue(prev, next Element) {
	prevLeaf, ok1 := prev.(*Leaf)
	nextLeaf, ok2 := next.(*Leaf)
	if !ok1 || !ok2 || !prevLeaf.Store().IsSet() {
		return
	}
	_ = nextLeaf.Store().Set(prevLeaf.Store().Value(), prevLeaf.Store().Provenance())
}

// effectEqual compares two warp effects field by field; cty values compare
// with RawEquals.
func effectEqual(a, b model.WarpEffect) bool {
	if a.Unavailable != b.Unavailable ||
		a.ConfigClass != b.ConfigClass {
		return false
	}
	if (a.ValueType == cty.NilType) != (b.ValueType == cty.NilType) {
		return false
	}
	if a.ValueType != cty.NilType && !a.ValueType.Equals(b.ValueType) {
		return false
	}
	if (a.Default == cty.NilVal) != (b.Default == cty.NilVal) {
		return false
	}
	if a.Default != cty.NilVal && !a.Default.RawEquals(b.Default) {
		return false
	}
	if len(a.Choice) != len(b.Choice) {
		return false
	}
	for i := range a.Choice {
		if a.Choice[i] != b.Choice[i] {
			return false
		}
	}
	return enumPtrEqual(a.Permission, b.Permission) &&
		enumPtrEqual(a.Level, b.Level) &&
		enumPtrEqual(a.Status, b.Status)
}

func enumPtrEqual[T comparable](a, b *T) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
