// Package registry stores raw class declarations and compiles them into
// immutable class descriptors: include directives are resolved
// transitively, element order is merged deterministically, the per-element
// property maps are made total, and warp payloads are handed to the warp
// compiler. Compiled descriptors are cached; recompilation is idempotent
// and descriptors are safe to share read-only across tree instances.
package registry

import (
	"context"
	"sort"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/ctxlog"
	"github.com/cfgtree/cfgtree/internal/model"
)

// Registry holds the class declarations of one model instance.
type Registry struct {
	raw      map[string]*model.RawClass
	compiled map[string]*model.ClassDescriptor

	// compiling is the in-progress set of the include DFS; a revisit
	// means the include graph has a cycle.
	compiling map[string]bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		raw:       make(map[string]*model.RawClass),
		compiled:  make(map[string]*model.ClassDescriptor),
		compiling: make(map[string]bool),
	}
}

// Declare registers a raw class declaration. Declaring the same name twice
// fails with DuplicateClass.
func (r *Registry) Declare(ctx context.Context, raw *model.RawClass) error {
	if raw.Name == "" {
		return cmerr.New(cmerr.BadParameter, "class declaration has no name")
	}
	if _, exists := r.raw[raw.Name]; exists {
		return cmerr.New(cmerr.DuplicateClass, "already declared").WithClass(raw.Name)
	}
	r.raw[raw.Name] = raw
	ctxlog.FromContext(ctx).Debug("class declared",
		"class", raw.Name, "elements", len(raw.Elements))
	return nil
}

// DeclareAll registers every declaration in order, stopping at the first
// failure.
func (r *Registry) DeclareAll(ctx context.Context, classes []*model.RawClass) error {
	for _, raw := range classes {
		if err := r.Declare(ctx, raw); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the compiled descriptor for name if compilation already
// happened; it never triggers compilation itself.
func (r *Registry) Lookup(name string) (*model.ClassDescriptor, error) {
	if d, ok := r.compiled[name]; ok {
		return d, nil
	}
	return nil, cmerr.New(cmerr.UnknownClass, "not compiled").WithClass(name)
}

// Names returns all declared class names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.raw))
	for name := range r.raw {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CompileAll compiles every declared class.
func (r *Registry) CompileAll(ctx context.Context) error {
	for _, name := range r.Names() {
		if _, err := r.Compile(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
