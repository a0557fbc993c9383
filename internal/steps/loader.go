package steps

import (
	"context"
	"fmt"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/ctxlog"
	"github.com/cfgtree/cfgtree/internal/model"
	"github.com/cfgtree/cfgtree/internal/tree"
	"github.com/cfgtree/cfgtree/internal/treepath"
	"github.com/cfgtree/cfgtree/internal/value"
)

// Options controls how a step string is applied.
type Options struct {
	// Access is the caller's permission grade; writes to elements above it
	// fail with PermissionDenied.
	Access model.Permission
	// Provenance is the initial write mode, ProvCustom unless set to
	// ProvPreset. The `!` token toggles between the two.
	Provenance value.Provenance
}

type opCode int

const (
	opToggle opCode = iota // `!`
	opPop                  // `-`
	opDescend              // `name`
	opSelect               // `name:key`
	opAssign               // `name=...` or `name:key=...`
)

// op is one parsed segment, with the byte offset of its token for error
// reports.
type op struct {
	code   opCode
	step   treepath.Step
	vals   []string
	offset int
}

// Load parses a whole step string and applies it to the tree. Application
// is atomic: any failing segment rolls the tree back to its state before
// the call, and the returned error carries the offending token's byte
// offset.
func Load(ctx context.Context, t *tree.Tree, raw string, opts Options) error {
	ops, err := parse(raw)
	if err != nil {
		return err
	}

	mark := t.Snapshot()
	if err := apply(ctx, t, ops, opts); err != nil {
		if rbErr := t.Rollback(ctx, mark); rbErr != nil {
			ctxlog.FromContext(ctx).Error("rollback after failed step application failed",
				"error", rbErr)
		}
		return err
	}
	return nil
}

func parse(raw string) ([]op, error) {
	tokens, err := treepath.SplitTokens(raw)
	if err != nil {
		return nil, cmerr.Newf(cmerr.InvalidValue, "bad step string: %v", err)
	}

	ops := make([]op, 0, len(tokens))
	for _, tok := range tokens {
		switch tok.Text {
		case "!":
			ops = append(ops, op{code: opToggle, offset: tok.Offset})
			continue
		case "-":
			ops = append(ops, op{code: opPop, offset: tok.Offset})
			continue
		}

		lhs, rhs, hasEq := treepath.CutUnquoted(tok.Text, '=')
		step, err := treepath.ParseStep(lhs)
		if err != nil {
			return nil, cmerr.Newf(cmerr.PathNotFound, "bad step segment %q: %v", tok.Text, err).
				WithToken(tok.Offset)
		}
		if !hasEq {
			code := opDescend
			if step.HasKey {
				code = opSelect
			}
			ops = append(ops, op{code: code, step: step, offset: tok.Offset})
			continue
		}

		vals, err := splitValues(rhs)
		if err != nil {
			return nil, cmerr.Newf(cmerr.InvalidValue, "bad value in %q: %v", tok.Text, err).
				WithToken(tok.Offset)
		}
		ops = append(ops, op{code: opAssign, step: step, vals: vals, offset: tok.Offset})
	}
	return ops, nil
}

func apply(ctx context.Context, t *tree.Tree, ops []op, opts Options) error {
	prov := value.ProvCustom
	if opts.Provenance == value.ProvPreset {
		prov = value.ProvPreset
	}

	stack := []*tree.Node{t.Root()}
	for _, o := range ops {
		cur := stack[len(stack)-1]

		switch o.code {
		case opToggle:
			if prov == value.ProvCustom {
				prov = value.ProvPreset
			} else {
				prov = value.ProvCustom
			}

		case opPop:
			// Popping at the root is a no-op: dumps close every scope and
			// may leave a trailing marker.
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}

		case opDescend:
			elem, err := resolveChild(ctx, cur, o)
			if err != nil {
				return err
			}
			node, ok := elem.(*tree.Node)
			if !ok {
				return withToken(cmerr.Newf(cmerr.InvalidValue, "%q is not a node, cannot descend",
					elem.PathString()).WithPath(elem.PathString()), o.offset)
			}
			stack = append(stack, node)

		case opSelect:
			elem, err := resolveChild(ctx, cur, o)
			if err != nil {
				return err
			}
			entry, err := t.CreateEntry(ctx, elem, o.step.Key, opts.Access)
			if err != nil {
				return withToken(err, o.offset)
			}
			// Selecting a node entry makes it the current scope; a leaf
			// entry is just instantiated.
			if node, ok := entry.(*tree.Node); ok {
				stack = append(stack, node)
			}

		case opAssign:
			elem, err := resolveChild(ctx, cur, o)
			if err != nil {
				return err
			}
			target := elem
			if o.step.HasKey {
				entry, err := t.CreateEntry(ctx, elem, o.step.Key, opts.Access)
				if err != nil {
					return withToken(err, o.offset)
				}
				target = entry
			}
			if err := t.Assign(ctx, target, o.vals, prov, opts.Access); err != nil {
				return withToken(err, o.offset)
			}
		}
	}
	return nil
}

// resolveChild fetches one named child of the current scope and unwraps its
// warp state. A warped-out element fails: steps always intend to touch what
// they name.
func resolveChild(ctx context.Context, cur *tree.Node, o op) (tree.Element, error) {
	elem, err := cur.Element(ctx, o.step.Name)
	if err != nil {
		return nil, withToken(err, o.offset)
	}
	elem, err = tree.Resolved(ctx, elem)
	if err != nil {
		return nil, withToken(err, o.offset)
	}
	if elem == nil {
		return nil, cmerr.New(cmerr.ElementWarpedOut, "element is currently unavailable").
			WithElement(o.step.Name).
			WithPath(cur.Path().Append(treepath.NewStep(o.step.Name)).String()).
			WithToken(o.offset)
	}
	return elem, nil
}

// withToken stamps the token offset onto a structured error that does not
// already carry one.
func withToken(err error, offset int) error {
	if ce, ok := err.(*cmerr.Error); ok && ce.Token < 0 {
		return ce.WithToken(offset)
	}
	return err
}

// splitValues splits an assignment's right-hand side on unquoted commas and
// unquotes each field. Empty fields are preserved: `,,c,d` yields four
// values, the first two empty.
func splitValues(raw string) ([]string, error) {
	var fields []string
	start := 0
	inQuote := false
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				fields = append(fields, raw[start:i])
				start = i + 1
			}
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	fields = append(fields, raw[start:])

	out := make([]string, len(fields))
	for i, f := range fields {
		v, err := treepath.UnquoteKey(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
