package tree

import (
	"context"
	"sort"
	"strconv"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/model"
	"github.com/cfgtree/cfgtree/internal/treepath"
	"github.com/cfgtree/cfgtree/internal/value"
)

// entryContainer is implemented by the two collection variants.
type entryContainer interface {
	Element
	// Entry selects the entry for key, creating it (and, for lists, any
	// entries below the index) when create is set. A missing entry
	// without create returns (nil, nil).
	Entry(ctx context.Context, key string, create bool) (Element, error)
}

// cargoSpec derives the element spec of one collection entry from the
// collection's cargo declaration. Permission, level and status are
// inherited from the collection itself.
func cargoSpec(spec *model.ElementSpec) *model.ElementSpec {
	cargo := spec.Cargo
	return &model.ElementSpec{
		Name:        spec.Name,
		Type:        cargo.Type,
		Permission:  spec.Permission,
		Level:       spec.Level,
		Status:      spec.Status,
		ValueType:   cargo.ValueType,
		Default:     cargo.Default,
		Choice:      cargo.Choice,
		ConfigClass: cargo.ConfigClass,
	}
}

// List is an ordered collection of leaf or node entries, indexed from 0.
type List struct {
	tree    *Tree
	spec    *model.ElementSpec
	path    treepath.Path
	entries []Element
}

func (l *List) Kind() model.ElementType  { return model.TypeList }
func (l *List) Spec() *model.ElementSpec { return l.spec }
func (l *List) PathString() string       { return l.path.String() }

// Len returns the number of instantiated entries.
func (l *List) Len() int { return len(l.entries) }

// EntryAt returns the already-instantiated entry at index i.
func (l *List) EntryAt(i int) Element { return l.entries[i] }

func (l *List) Entry(ctx context.Context, key string, create bool) (Element, error) {
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 {
		return nil, cmerr.Newf(cmerr.InvalidValue, "list index %q is not a non-negative integer", key).
			WithPath(l.path.String())
	}
	if idx < len(l.entries) {
		return l.entries[idx], nil
	}
	if !create {
		return nil, nil
	}
	for len(l.entries) <= idx {
		entry, err := l.newEntry(ctx, len(l.entries))
		if err != nil {
			return nil, err
		}
		l.entries = append(l.entries, entry)
	}
	return l.entries[idx], nil
}

func (l *List) newEntry(ctx context.Context, idx int) (Element, error) {
	path := l.path
	// Replace the final step with its keyed form.
	steps := make([]treepath.Step, len(path.Steps))
	copy(steps, path.Steps)
	steps[len(steps)-1] = treepath.NewStepWithKey(steps[len(steps)-1].Name, strconv.Itoa(idx))
	entryPath := treepath.Path{Absolute: path.Absolute, Steps: steps}
	return l.tree.newConcrete(ctx, cargoSpec(l.spec), entryPath)
}

// SetStrings replaces the whole list with the given textual values: full
// positional overwrite, previous contents cleared. Empty fields stay
// present as leaves holding the empty string, so `,,c,d` yields four
// entries with the first two empty.
func (l *List) SetStrings(ctx context.Context, vals []string, prov value.Provenance) error {
	if l.spec.Cargo.Type != model.TypeLeaf {
		return cmerr.New(cmerr.InvalidValue, "cannot assign values to a list of nodes").
			WithPath(l.path.String())
	}
	fresh := make([]Element, 0, len(vals))
	for i, v := range vals {
		entry, err := l.newEntry(ctx, i)
		if err != nil {
			return err
		}
		if err := entry.(*Leaf).Store().SetString(v, prov); err != nil {
			return err
		}
		fresh = append(fresh, entry)
	}
	l.entries = fresh
	return nil
}

// Strings renders the list contents in index order.
func (l *List) Strings() []string {
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		if leaf, ok := e.(*Leaf); ok {
			out = append(out, leaf.Store().String())
		}
	}
	return out
}

// Hash is a keyed collection of leaf or node entries. Iteration order is
// the sorted key order so dumps are deterministic.
type Hash struct {
	tree    *Tree
	spec    *model.ElementSpec
	path    treepath.Path
	entries map[string]Element
}

func (h *Hash) Kind() model.ElementType  { return model.TypeHash }
func (h *Hash) Spec() *model.ElementSpec { return h.spec }
func (h *Hash) PathString() string       { return h.path.String() }

// Keys returns the entry keys, sorted.
func (h *Hash) Keys() []string {
	keys := make([]string, 0, len(h.entries))
	for k := range h.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (h *Hash) Len() int { return len(h.entries) }

func (h *Hash) Entry(ctx context.Context, key string, create bool) (Element, error) {
	if e, ok := h.entries[key]; ok {
		return e, nil
	}
	if !create {
		return nil, nil
	}
	steps := make([]treepath.Step, len(h.path.Steps))
	copy(steps, h.path.Steps)
	steps[len(steps)-1] = treepath.NewStepWithKey(steps[len(steps)-1].Name, key)
	entryPath := treepath.Path{Absolute: h.path.Absolute, Steps: steps}

	entry, err := h.tree.newConcrete(ctx, cargoSpec(h.spec), entryPath)
	if err != nil {
		return nil, err
	}
	h.entries[key] = entry
	return entry, nil
}

// SetKeys replaces the hash contents with entries for exactly the given
// keys, dropping entries not listed.
func (h *Hash) SetKeys(ctx context.Context, keys []string) error {
	old := h.entries
	h.entries = make(map[string]Element, len(keys))
	for _, k := range keys {
		if existing, ok := old[k]; ok {
			h.entries[k] = existing
			continue
		}
		if _, err := h.Entry(ctx, k, true); err != nil {
			return err
		}
	}
	return nil
}
