package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(name string) *model.RawElement {
	return &model.RawElement{Name: name, Type: model.TypeLeaf}
}

func declare(t *testing.T, r *Registry, classes ...*model.RawClass) {
	t.Helper()
	require.NoError(t, r.DeclareAll(context.Background(), classes))
}

func TestDeclareDuplicateClass(t *testing.T) {
	r := New()
	declare(t, r, &model.RawClass{Name: "A"})

	err := r.Declare(context.Background(), &model.RawClass{Name: "A"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmerr.DuplicateClass))
}

func TestCompileUnknownClass(t *testing.T) {
	r := New()
	_, err := r.Compile(context.Background(), "Nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmerr.UnknownClass))
}

func TestCompileIsIdempotent(t *testing.T) {
	r := New()
	declare(t, r, &model.RawClass{Name: "A", Elements: []*model.RawElement{leaf("x")}})

	first, err := r.Compile(context.Background(), "A")
	require.NoError(t, err)
	second, err := r.Compile(context.Background(), "A")
	require.NoError(t, err)
	assert.Same(t, first, second, "recompilation must return the cached descriptor")

	looked, err := r.Lookup("A")
	require.NoError(t, err)
	assert.Same(t, first, looked)
}

func TestCompilePropertyMapsAreTotal(t *testing.T) {
	r := New()
	declare(t, r, &model.RawClass{Name: "A", Elements: []*model.RawElement{leaf("x")}})

	d, err := r.Compile(context.Background(), "A")
	require.NoError(t, err)

	spec := d.Elements["x"]
	assert.Equal(t, model.PermissionIntermediate, spec.Permission)
	assert.Equal(t, model.LevelNormal, spec.Level)
	assert.Equal(t, model.StatusStandard, spec.Status)
	assert.Equal(t, "", spec.Description)
}

func TestIncludeOrderIsTransitive(t *testing.T) {
	// C includes A (which includes B): B's elements come before A's own,
	// which come before C's own.
	r := New()
	declare(t, r,
		&model.RawClass{Name: "B", Elements: []*model.RawElement{leaf("b1"), leaf("b2")}},
		&model.RawClass{Name: "A", Include: []string{"B"}, Elements: []*model.RawElement{leaf("a1")}},
		&model.RawClass{Name: "C", Include: []string{"A"}, Elements: []*model.RawElement{leaf("c1")}},
	)

	d, err := r.Compile(context.Background(), "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2", "a1", "c1"}, d.ElementList)
}

func TestIncludeAfterSplice(t *testing.T) {
	r := New()
	declare(t, r,
		&model.RawClass{Name: "Mixin", Elements: []*model.RawElement{leaf("m1"), leaf("m2")}},
		&model.RawClass{
			Name:         "Main",
			Include:      []string{"Mixin"},
			IncludeAfter: "id",
			Elements:     []*model.RawElement{leaf("id"), leaf("tail")},
		},
	)

	d, err := r.Compile(context.Background(), "Main")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "m1", "m2", "tail"}, d.ElementList)
}

func TestIncludeAfterUnknownElement(t *testing.T) {
	r := New()
	declare(t, r,
		&model.RawClass{Name: "Mixin", Elements: []*model.RawElement{leaf("m1")}},
		&model.RawClass{
			Name:         "Main",
			Include:      []string{"Mixin"},
			IncludeAfter: "ghost",
			Elements:     []*model.RawElement{leaf("id")},
		},
	)

	_, err := r.Compile(context.Background(), "Main")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmerr.BadParameter))
}

func TestIncludeCycleDetected(t *testing.T) {
	r := New()
	declare(t, r,
		&model.RawClass{Name: "A", Include: []string{"B"}},
		&model.RawClass{Name: "B", Include: []string{"A"}},
	)

	_, err := r.Compile(context.Background(), "A")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmerr.IncludeCycle))
}

func TestSelfIncludeCycle(t *testing.T) {
	r := New()
	declare(t, r, &model.RawClass{Name: "A", Include: []string{"A"}})

	_, err := r.Compile(context.Background(), "A")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmerr.IncludeCycle))
}

func TestMergeConflictOnDuplicateElement(t *testing.T) {
	r := New()
	declare(t, r,
		&model.RawClass{Name: "Mixin", Elements: []*model.RawElement{leaf("id")}},
		&model.RawClass{Name: "Main", Include: []string{"Mixin"}, Elements: []*model.RawElement{leaf("id")}},
	)

	_, err := r.Compile(context.Background(), "Main")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmerr.MergeConflict))
}

func TestMergeConflictBetweenIncludes(t *testing.T) {
	r := New()
	declare(t, r,
		&model.RawClass{Name: "M1", Elements: []*model.RawElement{leaf("shared")}},
		&model.RawClass{Name: "M2", Elements: []*model.RawElement{leaf("shared")}},
		&model.RawClass{Name: "Main", Include: []string{"M1", "M2"}},
	)

	_, err := r.Compile(context.Background(), "Main")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmerr.MergeConflict))
}

func TestNoDuplicatesInCompiledElementList(t *testing.T) {
	r := New()
	declare(t, r,
		&model.RawClass{Name: "B", Elements: []*model.RawElement{leaf("b1")}},
		&model.RawClass{Name: "A", Include: []string{"B"}, Elements: []*model.RawElement{leaf("a1")}},
	)
	require.NoError(t, r.CompileAll(context.Background()))

	for _, name := range r.Names() {
		d, err := r.Lookup(name)
		require.NoError(t, err)
		seen := map[string]bool{}
		for _, elem := range d.ElementList {
			assert.False(t, seen[elem], "duplicate element %q in class %q", elem, name)
			seen[elem] = true
			assert.Contains(t, d.Elements, elem)
		}
	}
}

func TestNodeElementNeedsConfigClass(t *testing.T) {
	r := New()
	declare(t, r, &model.RawClass{
		Name:     "A",
		Elements: []*model.RawElement{{Name: "n", Type: model.TypeNode}},
	})

	_, err := r.Compile(context.Background(), "A")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmerr.BadParameter))
}

func TestWarpCompileErrorCarriesClass(t *testing.T) {
	r := New()
	declare(t, r, &model.RawClass{
		Name: "A",
		Elements: []*model.RawElement{{
			Name: "w",
			Type: model.TypeLeaf,
			Warp: &model.RawWarp{}, // no follow paths
		}},
	})

	_, err := r.Compile(context.Background(), "A")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmerr.BadWarpValue))

	var ce *cmerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "A", ce.Class)
	assert.Equal(t, "w", ce.Element)
}

func TestForwardReferenceAcrossIncludeDAG(t *testing.T) {
	// A warp follower may target an element of a class compiled later;
	// compilation must not resolve follower paths.
	r := New()
	declare(t, r, &model.RawClass{
		Name: "A",
		Elements: []*model.RawElement{{
			Name: "w",
			Type: model.TypeLeaf,
			Warp: &model.RawWarp{
				FollowSingle: "! not_yet_declared",
				Rules:        []model.RawWarpRule{{Key: "x"}},
			},
		}},
	})

	_, err := r.Compile(context.Background(), "A")
	assert.NoError(t, err)
}
