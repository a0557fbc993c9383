package treepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expectErr bool
		expected  Path
	}{
		{
			name: "absolute path",
			raw:  "! fs mount_opts",
			expected: Path{Absolute: true, Steps: []Step{
				NewStep("fs"), NewStep("mount_opts"),
			}},
		},
		{
			name:     "relative single element",
			raw:      "macro",
			expected: Path{Steps: []Step{NewStep("macro")}},
		},
		{
			name: "relative with ups",
			raw:  "- - macro",
			expected: Path{Ups: 2, Steps: []Step{
				NewStep("macro"),
			}},
		},
		{
			name: "hash entry key",
			raw:  "! std_id:ab X",
			expected: Path{Absolute: true, Steps: []Step{
				NewStepWithKey("std_id", "ab"), NewStep("X"),
			}},
		},
		{
			name: "quoted key with space and comma",
			raw:  `! std_id:"a b,c" X`,
			expected: Path{Absolute: true, Steps: []Step{
				NewStepWithKey("std_id", "a b,c"), NewStep("X"),
			}},
		},
		{
			name: "quoted key with escaped quote",
			raw:  `! std_id:"say \"hi\"" X`,
			expected: Path{Absolute: true, Steps: []Step{
				NewStepWithKey("std_id", `say "hi"`), NewStep("X"),
			}},
		},
		{
			name: "numeric list index",
			raw:  "lista:2",
			expected: Path{Steps: []Step{
				NewStepWithKey("lista", "2"),
			}},
		},
		{name: "empty", raw: "", expectErr: true},
		{name: "only spaces", raw: "   ", expectErr: true},
		{name: "absolute cannot climb", raw: "! - macro", expectErr: true},
		{name: "unterminated quote", raw: `a:"b`, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse(tc.raw)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, raw := range []string{
		"! fs mount_opts",
		"! std_id:ab X",
		`! std_id:"a b" X`,
		"- - macro",
		"lista:2",
	} {
		t.Run(raw, func(t *testing.T) {
			p, err := Parse(raw)
			require.NoError(t, err)
			back, err := Parse(p.String())
			require.NoError(t, err)
			assert.Equal(t, p, back)
		})
	}
}

func TestQuoteKeyRoundTrip(t *testing.T) {
	for _, key := range []string{
		"plain",
		"with space",
		"a,b",
		`say "hi"`,
		"",
		"-",
		"back\\slash",
		"colon:inside",
	} {
		quoted := QuoteKey(key)
		back, err := UnquoteKey(quoted)
		require.NoError(t, err, "key %q quoted as %q", key, quoted)
		assert.Equal(t, key, back)
	}
}

func TestSplitTokens(t *testing.T) {
	tokens, err := SplitTokens(`std_id:ab X=Bv - lista=a,"b c" !`)
	require.NoError(t, err)

	var texts []string
	for _, tok := range tokens {
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{"std_id:ab", "X=Bv", "-", `lista=a,"b c"`, "!"}, texts)

	assert.Equal(t, 0, tokens[0].Offset)
	assert.Equal(t, 10, tokens[1].Offset)
}

func TestAppend(t *testing.T) {
	p := Path{Absolute: true, Steps: []Step{NewStep("a")}}
	q := p.Append(NewStepWithKey("b", "k"))

	assert.Equal(t, "! a", p.String(), "Append must not mutate the receiver")
	assert.Equal(t, `! a b:k`, q.String())
}
