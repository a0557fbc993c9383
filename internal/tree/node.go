package tree

import (
	"context"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/model"
	"github.com/cfgtree/cfgtree/internal/treepath"
)

// Node is a structured container backed by a compiled class descriptor.
// Children are created lazily on first access and owned exclusively by the
// tree.
type Node struct {
	tree     *Tree
	desc     *model.ClassDescriptor
	spec     *model.ElementSpec // nil at the tree root
	path     treepath.Path
	children map[string]Element
}

func (n *Node) Kind() model.ElementType     { return model.TypeNode }
func (n *Node) Spec() *model.ElementSpec    { return n.spec }
func (n *Node) PathString() string          { return n.path.String() }
func (n *Node) Path() treepath.Path         { return n.path }
func (n *Node) Descriptor() *model.ClassDescriptor { return n.desc }

// Element returns the named child, instantiating it on first access. A
// declared warp makes the child a *WarpedSlot; callers unwrap it with
// Resolved.
func (n *Node) Element(ctx context.Context, name string) (Element, error) {
	if e, ok := n.children[name]; ok {
		return e, nil
	}

	spec, ok := n.desc.Elements[name]
	if !ok {
		return nil, cmerr.Newf(cmerr.PathNotFound, "class %q declares no element %q", n.desc.Name, name).
			WithClass(n.desc.Name).WithElement(name).
			WithPath(n.path.Append(treepath.NewStep(name)).String())
	}

	childPath := n.path.Append(treepath.NewStep(name))
	var elem Element
	var err error
	if spec.Warp != nil {
		elem, err = newWarpedSlot(ctx, n, spec, childPath)
	} else {
		elem, err = n.tree.newConcrete(ctx, spec, childPath)
	}
	if err != nil {
		return nil, err
	}
	n.children[name] = elem
	return elem, nil
}

// HasInstantiated reports whether the named child has been created, without
// creating it.
func (n *Node) HasInstantiated(name string) bool {
	_, ok := n.children[name]
	return ok
}
