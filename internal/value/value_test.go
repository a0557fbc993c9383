package value

import (
	"errors"
	"testing"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestStoreDefaults(t *testing.T) {
	s := NewStore(Spec{Type: cty.String, Default: cty.StringVal("ext4")})

	assert.False(t, s.IsSet())
	assert.Equal(t, ProvDefault, s.Provenance())
	assert.Equal(t, "ext4", s.String())

	require.NoError(t, s.SetString("xfs", ProvCustom))
	assert.Equal(t, ProvCustom, s.Provenance())
	assert.Equal(t, "xfs", s.String())

	s.Clear()
	assert.Equal(t, ProvDefault, s.Provenance())
	assert.Equal(t, "ext4", s.String())
}

func TestStoreWithoutDefault(t *testing.T) {
	s := NewStore(Spec{})

	assert.Equal(t, ProvNone, s.Provenance())
	assert.Equal(t, "", s.String())

	require.NoError(t, s.SetString("hello", ProvPreset))
	assert.Equal(t, ProvPreset, s.Provenance())
	assert.Equal(t, "hello", s.String())
}

func TestStoreTypeConversion(t *testing.T) {
	s := NewStore(Spec{Type: cty.Number})

	require.NoError(t, s.SetString("42", ProvCustom))
	assert.Equal(t, cty.NumberIntVal(42), s.Value())
	assert.Equal(t, "42", s.String())

	err := s.SetString("not-a-number", ProvCustom)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmerr.InvalidValue))
	// A rejected write must not clobber the previous value.
	assert.Equal(t, "42", s.String())
}

func TestStoreBool(t *testing.T) {
	s := NewStore(Spec{Type: cty.Bool})

	require.NoError(t, s.SetString("true", ProvCustom))
	assert.Equal(t, cty.True, s.Value())
	assert.Equal(t, "true", s.String())
}

func TestStoreChoice(t *testing.T) {
	s := NewStore(Spec{Type: cty.String, Choice: []string{"Av", "Bv", "Cv"}})

	require.NoError(t, s.SetString("Bv", ProvCustom))

	err := s.SetString("Dv", ProvCustom)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmerr.InvalidValue))
	assert.Contains(t, err.Error(), "choice list")
}

func TestStoreSetCtyValue(t *testing.T) {
	s := NewStore(Spec{Type: cty.String})

	// A number is converted on the way in.
	require.NoError(t, s.Set(cty.NumberIntVal(7), ProvCustom))
	assert.Equal(t, "7", s.String())
}
