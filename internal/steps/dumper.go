package steps

import (
	"context"
	"strconv"
	"strings"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/model"
	"github.com/cfgtree/cfgtree/internal/tree"
	"github.com/cfgtree/cfgtree/internal/treepath"
	"github.com/cfgtree/cfgtree/internal/value"
)

// DumpMode selects which leaves a dump emits, by provenance.
type DumpMode int

const (
	// DumpCustomized emits preset and custom values, skipping pure defaults.
	DumpCustomized DumpMode = iota
	// DumpFull emits every leaf that has an effective value, defaults
	// included.
	DumpFull
	// DumpPreset emits only preset values.
	DumpPreset
)

var dumpModeNames = map[DumpMode]string{
	DumpCustomized: "customized",
	DumpFull:       "full",
	DumpPreset:     "preset",
}

func (m DumpMode) String() string {
	if s, ok := dumpModeNames[m]; ok {
		return s
	}
	return "DumpMode(?)"
}

// ParseDumpMode maps a mode name to a DumpMode. The empty string yields the
// default, DumpCustomized.
func ParseDumpMode(s string) (DumpMode, error) {
	switch s {
	case "", "customized":
		return DumpCustomized, nil
	case "full":
		return DumpFull, nil
	case "preset":
		return DumpPreset, nil
	}
	return 0, cmerr.Newf(cmerr.BadParameter, "unknown dump mode %q", s)
}

// Dump renders the tree as a step string that Load accepts. Elements appear
// in their class's declared order, depth-first; hash entries in sorted key
// order; node scopes close with `-`. Write-mode toggles (`!`) are emitted
// whenever the provenance of the next value differs from the current mode,
// so preset values reload as preset.
func Dump(ctx context.Context, t *tree.Tree, mode DumpMode, access model.Permission) (string, error) {
	d := &dumper{tree: t, mode: mode, access: access, prov: value.ProvCustom}
	if err := d.node(ctx, t.Root()); err != nil {
		return "", err
	}
	return strings.Join(d.tokens, " "), nil
}

type dumper struct {
	tree   *tree.Tree
	mode   DumpMode
	access model.Permission
	tokens []string
	// prov is the write mode the emitted stream is currently in.
	prov value.Provenance
}

func (d *dumper) include(p value.Provenance) bool {
	switch d.mode {
	case DumpFull:
		return p != value.ProvNone
	case DumpPreset:
		return p == value.ProvPreset
	default:
		return p == value.ProvPreset || p == value.ProvCustom
	}
}

// setMode emits a `!` toggle when the next value's provenance needs the
// other write mode. Defaults are re-emitted as custom values.
func (d *dumper) setMode(p value.Provenance) {
	if p != value.ProvPreset {
		p = value.ProvCustom
	}
	if d.prov != p {
		d.tokens = append(d.tokens, "!")
		d.prov = p
	}
}

// scope emits label, runs fn, and closes with `-`. A scope that produced no
// content is dropped altogether, label included.
func (d *dumper) scope(label string, fn func() error) error {
	at := len(d.tokens)
	d.tokens = append(d.tokens, label)
	if err := fn(); err != nil {
		return err
	}
	if len(d.tokens) == at+1 {
		d.tokens = d.tokens[:at]
		return nil
	}
	d.tokens = append(d.tokens, "-")
	return nil
}

func (d *dumper) node(ctx context.Context, n *tree.Node) error {
	for _, name := range n.Descriptor().ElementNames(d.access, true) {
		elem, err := n.Element(ctx, name)
		if err != nil {
			return err
		}
		elem, err = tree.Resolved(ctx, elem)
		if err != nil {
			return err
		}
		if elem == nil {
			continue // warped out, nothing to dump
		}
		if err := d.element(ctx, name, elem); err != nil {
			return err
		}
	}
	return nil
}

func (d *dumper) element(ctx context.Context, label string, elem tree.Element) error {
	switch e := elem.(type) {
	case *tree.Leaf:
		d.leaf(label, e)
		return nil
	case *tree.Node:
		return d.scope(label, func() error { return d.node(ctx, e) })
	case *tree.List:
		return d.list(ctx, label, e)
	case *tree.Hash:
		return d.hash(ctx, label, e)
	}
	return nil
}

func (d *dumper) leaf(label string, l *tree.Leaf) {
	p := l.Store().Provenance()
	if !d.include(p) {
		return
	}
	d.setMode(p)
	d.tokens = append(d.tokens, label+"="+quoteField(l.Store().String()))
}

// list emits an ordered collection of leaves as one positional assignment,
// which matches the loader's full-overwrite semantics exactly. Lists of
// nodes emit one scope per index.
func (d *dumper) list(ctx context.Context, label string, l *tree.List) error {
	if l.Spec().Cargo.Type == model.TypeNode {
		for i := 0; i < l.Len(); i++ {
			node, ok := l.EntryAt(i).(*tree.Node)
			if !ok {
				continue
			}
			step := treepath.NewStepWithKey(label, node.Path().Steps[len(node.Path().Steps)-1].Key)
			if err := d.scope(step.String(), func() error { return d.node(ctx, node) }); err != nil {
				return err
			}
		}
		return nil
	}

	prov, any := listProvenance(l)
	if l.Len() == 0 {
		return nil
	}
	if !any {
		// Entries created by selection but never assigned reload from a
		// bare selection of the highest index, which gap-fills the rest.
		if d.mode == DumpFull {
			d.tokens = append(d.tokens, treepath.NewStepWithKey(label, strconv.Itoa(l.Len()-1)).String())
		}
		return nil
	}
	if !d.include(prov) {
		return nil
	}
	fields := make([]string, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		leaf, ok := l.EntryAt(i).(*tree.Leaf)
		if !ok {
			continue
		}
		fields = append(fields, quoteField(leaf.Store().String()))
	}
	d.setMode(prov)
	d.tokens = append(d.tokens, label+"="+strings.Join(fields, ","))
	return nil
}

// listProvenance reports the provenance of a leaf list's contents: the
// first explicitly written entry decides, since one assignment writes every
// entry with the same mode.
func listProvenance(l *tree.List) (value.Provenance, bool) {
	for i := 0; i < l.Len(); i++ {
		if leaf, ok := l.EntryAt(i).(*tree.Leaf); ok && leaf.Store().IsSet() {
			return leaf.Store().Provenance(), true
		}
	}
	return value.ProvNone, false
}

func (d *dumper) hash(ctx context.Context, label string, h *tree.Hash) error {
	for _, key := range h.Keys() {
		entry, err := h.Entry(ctx, key, false)
		if err != nil {
			return err
		}
		step := treepath.NewStepWithKey(label, key)
		switch e := entry.(type) {
		case *tree.Node:
			if err := d.scope(step.String(), func() error { return d.node(ctx, e) }); err != nil {
				return err
			}
		case *tree.Leaf:
			p := e.Store().Provenance()
			if p == value.ProvNone {
				// A key created without a value round-trips as a bare
				// selection.
				if d.mode == DumpFull {
					d.tokens = append(d.tokens, step.String())
				}
				continue
			}
			if !d.include(p) {
				continue
			}
			d.setMode(p)
			d.tokens = append(d.tokens, step.String()+"="+quoteField(e.Store().String()))
		}
	}
	return nil
}

// quoteField renders one value field: empty stays bare (so positional gaps
// read back), anything containing tokenizer-significant characters is
// double-quoted.
func quoteField(v string) string {
	if v == "" {
		return ""
	}
	return treepath.QuoteKey(v)
}
