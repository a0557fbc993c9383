package tree

import (
	"context"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/ctxlog"
	"github.com/cfgtree/cfgtree/internal/model"
	"github.com/cfgtree/cfgtree/internal/registry"
	"github.com/cfgtree/cfgtree/internal/treepath"
	"github.com/cfgtree/cfgtree/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// Element is the capability shared by every tree variant. Concrete types
// are *Node, *Leaf, *List, *Hash and *WarpedSlot; callers dispatch with
// type switches, resolving warped slots first via Resolved.
type Element interface {
	Kind() model.ElementType
	Spec() *model.ElementSpec
	PathString() string
}

// Tree is one instantiated configuration tree.
type Tree struct {
	reg      *registry.Registry
	rootName string
	root     *Node

	// slots lists every instantiated warped slot, for follower-write
	// invalidation.
	slots []*WarpedSlot

	// journal records completed mutations in order; Snapshot/Rollback and
	// Clone replay it.
	journal   []journalOp
	replaying bool
}

// New instantiates a tree for the given root class, compiling it on demand.
func New(ctx context.Context, reg *registry.Registry, rootClass string) (*Tree, error) {
	desc, err := reg.Compile(ctx, rootClass)
	if err != nil {
		return nil, err
	}
	t := &Tree{reg: reg, rootName: rootClass}
	t.root = &Node{
		tree:     t,
		desc:     desc,
		path:     treepath.Path{Absolute: true},
		children: make(map[string]Element),
	}
	return t, nil
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// RootClass returns the name of the class the tree was instantiated from.
func (t *Tree) RootClass() string { return t.rootName }

// Resolved unwraps a warped slot into its current effective element,
// re-evaluating the warp if a followed value changed. The result is nil
// when the warp state makes the element absent. Plain elements pass
// through unchanged.
func Resolved(ctx context.Context, e Element) (Element, error) {
	if s, ok := e.(*WarpedSlot); ok {
		return s.Resolve(ctx)
	}
	return e, nil
}

// FetchPath walks an absolute path and returns the element it names, or
// nil when the path crosses a warped-out or absent branch. With create set,
// missing collection entries are created along the way and a warped-out
// branch is an ElementWarpedOut error.
func (t *Tree) FetchPath(ctx context.Context, p treepath.Path, create bool) (Element, error) {
	if !p.Absolute {
		return nil, cmerr.New(cmerr.PathNotFound, "tree lookups need an absolute path").
			WithPath(p.String())
	}

	var cur Element = t.root
	for _, step := range p.Steps {
		node, ok := cur.(*Node)
		if !ok {
			return nil, cmerr.Newf(cmerr.PathNotFound, "%q is not a node, cannot descend into %q",
				cur.PathString(), step.Name).WithPath(p.String())
		}

		elem, err := node.Element(ctx, step.Name)
		if err != nil {
			return nil, err
		}
		elem, err = Resolved(ctx, elem)
		if err != nil {
			return nil, err
		}
		if elem == nil {
			if create {
				return nil, cmerr.New(cmerr.ElementWarpedOut, "element is currently unavailable").
					WithPath(p.String())
			}
			return nil, nil
		}

		if step.HasKey {
			coll, ok := elem.(entryContainer)
			if !ok {
				return nil, cmerr.Newf(cmerr.PathNotFound, "%q has no entries, key %q is meaningless",
					elem.PathString(), step.Key).WithPath(p.String())
			}
			entry, err := coll.Entry(ctx, step.Key, create)
			if err != nil {
				return nil, err
			}
			if entry == nil {
				return nil, nil
			}
			elem = entry
		}
		cur = elem
	}
	return cur, nil
}

// ReadPath implements warp.ValueReader: it reads the current effective
// value of the leaf at an absolute canonical path. An element that exists
// in the model but holds no value reports ok=false; a path the model does
// not declare is a PathNotFound error.
func (t *Tree) ReadPath(ctx context.Context, raw string) (cty.Value, bool, error) {
	p, err := treepath.Parse(raw)
	if err != nil {
		return cty.NilVal, false, cmerr.Newf(cmerr.PathNotFound, "bad path: %v", err).WithPath(raw)
	}
	elem, err := t.FetchPath(ctx, p, false)
	if err != nil {
		return cty.NilVal, false, err
	}
	leaf, ok := elem.(*Leaf)
	if !ok {
		return cty.NilVal, false, nil
	}
	v := leaf.Store().Value()
	if v == cty.NilVal {
		return cty.NilVal, false, nil
	}
	return v, true, nil
}

// CreateEntry selects (creating if needed) one entry of a list or hash
// element, enforcing the caller's access level. The returned element is
// already warp-resolved.
func (t *Tree) CreateEntry(ctx context.Context, coll Element, key string, access model.Permission) (Element, error) {
	container, ok := coll.(entryContainer)
	if !ok {
		return nil, cmerr.Newf(cmerr.PathNotFound, "%q has no entries", coll.PathString()).
			WithPath(coll.PathString())
	}
	if err := t.checkWritable(ctx, coll.Spec(), access, coll.PathString()); err != nil {
		return nil, err
	}
	entry, err := container.Entry(ctx, key, true)
	if err != nil {
		return nil, err
	}
	t.record(journalOp{kind: opTouch, path: entry.PathString()})
	return entry, nil
}

// Assign writes textual values to an element: a single value to a leaf,
// a full positional overwrite to a list, the set of keys to a hash. The
// element must already be warp-resolved. The write is all-or-nothing: when
// re-resolving a dependent warped slot fails, the value is rolled back.
func (t *Tree) Assign(ctx context.Context, elem Element, vals []string, prov value.Provenance, access model.Permission) error {
	if err := t.checkWritable(ctx, elem.Spec(), access, elem.PathString()); err != nil {
		return err
	}
	mark := t.Snapshot()
	if err := t.assign(ctx, elem, vals, prov); err != nil {
		return err
	}
	t.record(journalOp{kind: opAssign, path: elem.PathString(), vals: vals, prov: prov})
	if err := t.noteWrite(ctx, elem.PathString()); err != nil {
		t.undoWrite(ctx, mark)
		return err
	}
	return nil
}

func (t *Tree) assign(ctx context.Context, elem Element, vals []string, prov value.Provenance) error {
	switch e := elem.(type) {
	case *Leaf:
		if len(vals) != 1 {
			return cmerr.Newf(cmerr.InvalidValue, "%d comma-separated values assigned to a scalar leaf", len(vals)).
				WithPath(elem.PathString())
		}
		return e.Store().SetString(vals[0], prov)
	case *List:
		return e.SetStrings(ctx, vals, prov)
	case *Hash:
		return e.SetKeys(ctx, vals)
	default:
		return cmerr.New(cmerr.InvalidValue, "element cannot be assigned a value").
			WithPath(elem.PathString())
	}
}

// WriteString assigns one textual value to the leaf at an absolute path.
func (t *Tree) WriteString(ctx context.Context, rawPath, rawValue string, prov value.Provenance, access model.Permission) error {
	p, err := treepath.Parse(rawPath)
	if err != nil {
		return cmerr.Newf(cmerr.PathNotFound, "bad path: %v", err).WithPath(rawPath)
	}
	elem, err := t.FetchPath(ctx, p, true)
	if err != nil {
		return err
	}
	return t.Assign(ctx, elem, []string{rawValue}, prov, access)
}

// ClearPath forgets the written value of the leaf at an absolute path.
func (t *Tree) ClearPath(ctx context.Context, rawPath string, access model.Permission) error {
	p, err := treepath.Parse(rawPath)
	if err != nil {
		return cmerr.Newf(cmerr.PathNotFound, "bad path: %v", err).WithPath(rawPath)
	}
	elem, err := t.FetchPath(ctx, p, true)
	if err != nil {
		return err
	}
	leaf, ok := elem.(*Leaf)
	if !ok {
		return cmerr.New(cmerr.InvalidValue, "only leaves can be cleared").WithPath(rawPath)
	}
	if err := t.checkWritable(ctx, leaf.Spec(), access, rawPath); err != nil {
		return err
	}
	mark := t.Snapshot()
	leaf.Store().Clear()
	t.record(journalOp{kind: opClear, path: leaf.PathString()})
	if err := t.noteWrite(ctx, leaf.PathString()); err != nil {
		t.undoWrite(ctx, mark)
		return err
	}
	return nil
}

// undoWrite discards a mutation whose follower re-resolution failed.
func (t *Tree) undoWrite(ctx context.Context, mark int) {
	if err := t.Rollback(ctx, mark); err != nil {
		ctxlog.FromContext(ctx).Error("rollback after failed warp resolution failed",
			"error", err)
	}
}

// checkWritable enforces permission and status before any mutation.
func (t *Tree) checkWritable(ctx context.Context, spec *model.ElementSpec, access model.Permission, path string) error {
	if !spec.Permission.AllowedFor(access) {
		return cmerr.Newf(cmerr.PermissionDenied, "element needs %s access, caller has %s",
			spec.Permission, access).WithElement(spec.Name).WithPath(path)
	}
	switch spec.Status {
	case model.StatusObsolete:
		return cmerr.New(cmerr.InvalidValue, "element is obsolete and can no longer be written").
			WithElement(spec.Name).WithPath(path)
	case model.StatusDeprecated:
		ctxlog.FromContext(ctx).Warn("writing to a deprecated element", "path", path)
	}
	return nil
}

// noteWrite runs after every completed mutation: warped slots following the
// written path are invalidated and re-resolved immediately, so a follower
// change takes effect before the next read.
func (t *Tree) noteWrite(ctx context.Context, path string) error {
	for _, s := range t.slots {
		if s.follows(path) {
			s.dirty = true
		}
	}
	for _, s := range t.slots {
		if s.dirty {
			if _, err := s.Resolve(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// newConcrete instantiates the element variant an effective spec calls
// for. The spec's warp, if any, has already been applied by the caller.
func (t *Tree) newConcrete(ctx context.Context, spec *model.ElementSpec, path treepath.Path) (Element, error) {
	switch spec.Type {
	case model.TypeLeaf:
		return newLeaf(t, spec, path), nil
	case model.TypeNode:
		desc, err := t.reg.Compile(ctx, spec.ConfigClass)
		if err != nil {
			return nil, err
		}
		return &Node{
			tree:     t,
			desc:     desc,
			spec:     spec,
			path:     path,
			children: make(map[string]Element),
		}, nil
	case model.TypeList:
		return &List{tree: t, spec: spec, path: path}, nil
	case model.TypeHash:
		return &Hash{tree: t, spec: spec, path: path, entries: make(map[string]Element)}, nil
	}
	return nil, cmerr.Newf(cmerr.BadParameter, "cannot instantiate element of type %s", spec.Type).
		WithElement(spec.Name).WithPath(path.String())
}
