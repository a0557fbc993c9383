package tree

import (
	"context"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/treepath"
	"github.com/cfgtree/cfgtree/internal/value"
)

// opKind tags one journal entry.
type opKind int

const (
	// opTouch instantiates a collection entry without writing a value.
	opTouch opKind = iota
	// opAssign writes values: one to a leaf, positions to a list, keys to
	// a hash.
	opAssign
	// opClear forgets a leaf's written value.
	opClear
)

// journalOp is one completed mutation, recorded after validation succeeded.
// Replaying the journal against a fresh root rebuilds the tree state, which
// is how Snapshot/Rollback and Clone work without per-element undo logic.
type journalOp struct {
	kind opKind
	path string
	vals []string
	prov value.Provenance
}

func (t *Tree) record(op journalOp) {
	if t.replaying {
		return
	}
	t.journal = append(t.journal, op)
}

// Snapshot marks the current journal position. Passing the mark to Rollback
// discards every mutation made since.
func (t *Tree) Snapshot() int { return len(t.journal) }

// Rollback restores the tree to the state it had at the given Snapshot mark
// by replaying the journal prefix against a fresh root.
func (t *Tree) Rollback(ctx context.Context, mark int) error {
	if mark < 0 || mark > len(t.journal) {
		return cmerr.Newf(cmerr.BadParameter, "rollback mark %d out of range", mark)
	}
	prefix := t.journal[:mark]
	if err := t.replay(ctx, prefix); err != nil {
		return err
	}
	t.journal = t.journal[:mark]
	return nil
}

// Clone builds an independent tree with the same registry, root class and
// state. Mutating either tree leaves the other untouched.
func (t *Tree) Clone(ctx context.Context) (*Tree, error) {
	fresh, err := New(ctx, t.reg, t.rootName)
	if err != nil {
		return nil, err
	}
	if err := fresh.replay(ctx, t.journal); err != nil {
		return nil, err
	}
	fresh.journal = append(fresh.journal, t.journal...)
	return fresh, nil
}

// replay resets the tree to an empty root and applies the given ops in
// order. Recording is suppressed while replaying.
func (t *Tree) replay(ctx context.Context, ops []journalOp) error {
	t.root = &Node{
		tree:     t,
		desc:     t.root.desc,
		path:     treepath.Path{Absolute: true},
		children: make(map[string]Element),
	}
	t.slots = nil

	t.replaying = true
	defer func() { t.replaying = false }()
	for _, op := range ops {
		if err := t.applyOp(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

// applyOp re-executes one journaled mutation. The op passed validation when
// it was recorded, so permission and status checks are skipped.
func (t *Tree) applyOp(ctx context.Context, op journalOp) error {
	p, err := treepath.Parse(op.path)
	if err != nil {
		return cmerr.Newf(cmerr.PathNotFound, "journaled path no longer parses: %v", err).
			WithPath(op.path)
	}
	elem, err := t.FetchPath(ctx, p, true)
	if err != nil {
		return err
	}

	switch op.kind {
	case opTouch:
		return nil
	case opAssign:
		if err := t.assign(ctx, elem, op.vals, op.prov); err != nil {
			return err
		}
		return t.noteWrite(ctx, op.path)
	case opClear:
		leaf, ok := elem.(*Leaf)
		if !ok {
			return cmerr.New(cmerr.InvalidValue, "journaled clear targets a non-leaf").
				WithPath(op.path)
		}
		leaf.Store().Clear()
		return t.noteWrite(ctx, op.path)
	}
	return cmerr.Newf(cmerr.BadParameter, "unknown journal op %d", op.kind)
}
