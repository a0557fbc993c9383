package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestParsePermission(t *testing.T) {
	testCases := []struct {
		in        string
		expected  Permission
		expectErr bool
	}{
		{in: "", expected: PermissionIntermediate},
		{in: "intermediate", expected: PermissionIntermediate},
		{in: "advanced", expected: PermissionAdvanced},
		{in: "master", expected: PermissionMaster},
		{in: "root", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run("permission "+tc.in, func(t *testing.T) {
			p, err := ParsePermission(tc.in)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p)
		})
	}
}

func TestPermissionAllowedFor(t *testing.T) {
	assert.True(t, PermissionIntermediate.AllowedFor(PermissionIntermediate))
	assert.True(t, PermissionAdvanced.AllowedFor(PermissionMaster))
	assert.False(t, PermissionMaster.AllowedFor(PermissionAdvanced))
	assert.False(t, PermissionAdvanced.AllowedFor(PermissionIntermediate))
}

func TestEnumZeroValuesAreDefaults(t *testing.T) {
	assert.Equal(t, "intermediate", Permission(0).String())
	assert.Equal(t, "normal", Level(0).String())
	assert.Equal(t, "standard", Status(0).String())
	assert.Equal(t, "leaf", ElementType(0).String())
}

func testDescriptor() *ClassDescriptor {
	return &ClassDescriptor{
		Name:        "Host",
		ElementList: []string{"id", "fs", "root_pw", "internal_tag"},
		Elements: map[string]*ElementSpec{
			"id":           {Name: "id", Type: TypeLeaf},
			"fs":           {Name: "fs", Type: TypeLeaf, Permission: PermissionAdvanced},
			"root_pw":      {Name: "root_pw", Type: TypeLeaf, Permission: PermissionMaster},
			"internal_tag": {Name: "internal_tag", Type: TypeLeaf, Level: LevelHidden},
		},
	}
}

func TestElementNamesFiltersPermissionAndLevel(t *testing.T) {
	d := testDescriptor()

	assert.Equal(t, []string{"id"}, d.ElementNames(PermissionIntermediate, false))
	assert.Equal(t, []string{"id", "fs"}, d.ElementNames(PermissionAdvanced, false))
	assert.Equal(t, []string{"id", "fs", "root_pw"}, d.ElementNames(PermissionMaster, false))
	assert.Equal(t, []string{"id", "fs", "root_pw", "internal_tag"},
		d.ElementNames(PermissionMaster, true))
}

func TestWithEffectDoesNotMutateBase(t *testing.T) {
	base := &ElementSpec{
		Name:      "fs",
		Type:      TypeLeaf,
		ValueType: cty.String,
		Default:   cty.StringVal("ext4"),
		Choice:    []string{"ext4", "xfs"},
	}

	adv := PermissionAdvanced
	eff := WarpEffect{
		Default:    cty.StringVal("xfs"),
		Permission: &adv,
	}

	got := base.WithEffect(eff)
	assert.Equal(t, cty.StringVal("xfs"), got.Default)
	assert.Equal(t, PermissionAdvanced, got.Permission)
	assert.Equal(t, []string{"ext4", "xfs"}, got.Choice, "unset override keeps base")

	assert.Equal(t, cty.StringVal("ext4"), base.Default, "base spec must stay immutable")
	assert.Equal(t, PermissionIntermediate, base.Permission)
}

func TestCondEval(t *testing.T) {
	cond := CondOr{Terms: []Cond{
		CondAnd{Terms: []Cond{
			CondEq{Sym: "f1", Literal: "A"},
			CondEq{Sym: "f2", Literal: "B"},
		}},
		CondEq{Sym: "f1", Literal: "C"},
	}}

	assert.True(t, cond.Eval(map[string]string{"f1": "A", "f2": "B"}))
	assert.True(t, cond.Eval(map[string]string{"f1": "C"}))
	assert.False(t, cond.Eval(map[string]string{"f1": "A", "f2": "X"}))
	assert.False(t, cond.Eval(map[string]string{}))

	assert.Equal(t, []string{"f1", "f2"}, CondSymbols(cond))
}

func TestWarpEffectIsZero(t *testing.T) {
	assert.True(t, WarpEffect{}.IsZero())
	assert.False(t, WarpEffect{Unavailable: true}.IsZero())
	assert.False(t, WarpEffect{Default: cty.StringVal("x")}.IsZero())
}
