package tree

import (
	"github.com/cfgtree/cfgtree/internal/model"
	"github.com/cfgtree/cfgtree/internal/treepath"
	"github.com/cfgtree/cfgtree/internal/value"
)

// Leaf holds one scalar value. Storage, type conversion and provenance are
// delegated to the value store.
type Leaf struct {
	tree  *Tree
	spec  *model.ElementSpec
	path  treepath.Path
	store *value.Store
}

func newLeaf(t *Tree, spec *model.ElementSpec, path treepath.Path) *Leaf {
	return &Leaf{
		tree: t,
		spec: spec,
		path: path,
		store: value.NewStore(value.Spec{
			Type:    spec.ValueType,
			Default: spec.Default,
			Choice:  spec.Choice,
		}),
	}
}

func (l *Leaf) Kind() model.ElementType  { return model.TypeLeaf }
func (l *Leaf) Spec() *model.ElementSpec { return l.spec }
func (l *Leaf) PathString() string       { return l.path.String() }

// Store gives access to the leaf's value store.
func (l *Leaf) Store() *value.Store { return l.store }
