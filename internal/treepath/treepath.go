// Package treepath provides the structured representation of element paths
// used to address tree elements: by the step loader, by the dumper, and by
// warp follower declarations.
//
// A path is a sequence of space-separated steps. A step is an element name,
// optionally followed by `:key` selecting one entry of a list (numeric key)
// or hash element; keys may be double-quoted with backslash escapes. A path
// starting with `!` is absolute; a relative path may start with one `-` per
// level to climb before descending.
package treepath

import (
	"fmt"
	"strings"
)

// Step is one path component: an element name with an optional entry key.
type Step struct {
	Name   string
	Key    string
	HasKey bool
}

// NewStep creates a step without an entry key.
func NewStep(name string) Step {
	return Step{Name: name}
}

// NewStepWithKey creates a step selecting one collection entry.
func NewStepWithKey(name, key string) Step {
	return Step{Name: name, Key: key, HasKey: true}
}

func (s Step) String() string {
	if !s.HasKey {
		return s.Name
	}
	return s.Name + ":" + QuoteKey(s.Key)
}

// Path is a parsed element path.
type Path struct {
	// Absolute paths start at the tree root.
	Absolute bool
	// Ups counts leading `-` steps of a relative path.
	Ups   int
	Steps []Step
}

// String renders the canonical form: absolute paths are prefixed with `!`,
// relative ones with one `-` per level climbed.
func (p Path) String() string {
	var parts []string
	if p.Absolute {
		parts = append(parts, "!")
	}
	for i := 0; i < p.Ups; i++ {
		parts = append(parts, "-")
	}
	for _, s := range p.Steps {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, " ")
}

// Append returns a copy of p extended by one step.
func (p Path) Append(s Step) Path {
	steps := make([]Step, 0, len(p.Steps)+1)
	steps = append(steps, p.Steps...)
	steps = append(steps, s)
	return Path{Absolute: p.Absolute, Ups: p.Ups, Steps: steps}
}

// Parse reads the canonical textual form of a path.
func Parse(raw string) (Path, error) {
	tokens, err := SplitTokens(raw)
	if err != nil {
		return Path{}, err
	}
	if len(tokens) == 0 {
		return Path{}, fmt.Errorf("empty path")
	}

	var p Path
	i := 0
	if tokens[0].Text == "!" {
		p.Absolute = true
		i++
	}
	for ; i < len(tokens) && tokens[i].Text == "-"; i++ {
		if p.Absolute {
			return Path{}, fmt.Errorf("absolute path cannot climb with '-'")
		}
		p.Ups++
	}
	for ; i < len(tokens); i++ {
		step, err := ParseStep(tokens[i].Text)
		if err != nil {
			return Path{}, err
		}
		p.Steps = append(p.Steps, step)
	}
	if !p.Absolute && p.Ups == 0 && len(p.Steps) == 0 {
		return Path{}, fmt.Errorf("empty path")
	}
	return p, nil
}

// ParseStep reads one `name` or `name:key` component. The raw text must
// already be a single token (no unquoted spaces).
func ParseStep(raw string) (Step, error) {
	name, rest, found := CutUnquoted(raw, ':')
	if !found {
		if err := checkName(raw); err != nil {
			return Step{}, err
		}
		return NewStep(raw), nil
	}
	if err := checkName(name); err != nil {
		return Step{}, err
	}
	key, err := UnquoteKey(rest)
	if err != nil {
		return Step{}, fmt.Errorf("bad key in step %q: %w", raw, err)
	}
	return NewStepWithKey(name, key), nil
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("empty element name")
	}
	if strings.ContainsAny(name, " \t\"=:") {
		return fmt.Errorf("invalid element name %q", name)
	}
	return nil
}

// CutUnquoted splits raw at the first occurrence of sep outside double
// quotes.
func CutUnquoted(raw string, sep byte) (before, after string, found bool) {
	inQuote := false
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case sep:
			if !inQuote {
				return raw[:i], raw[i+1:], true
			}
		}
	}
	return raw, "", false
}

// QuoteKey wraps a key in double quotes when it contains characters the
// tokenizer would otherwise interpret, escaping interior quotes and
// backslashes.
func QuoteKey(key string) string {
	if key != "" && !strings.ContainsAny(key, " \t\"\\,:=!-") {
		return key
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(key); i++ {
		if key[i] == '"' || key[i] == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(key[i])
	}
	sb.WriteByte('"')
	return sb.String()
}

// UnquoteKey reverses QuoteKey. Unquoted keys pass through unchanged.
func UnquoteKey(raw string) (string, error) {
	if !strings.HasPrefix(raw, `"`) {
		if strings.Contains(raw, `"`) {
			return "", fmt.Errorf("stray quote in %q", raw)
		}
		return raw, nil
	}
	if len(raw) < 2 || !strings.HasSuffix(raw, `"`) {
		return "", fmt.Errorf("unterminated quoted key %q", raw)
	}
	body := raw[1 : len(raw)-1]
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		sb.WriteByte(body[i])
	}
	return sb.String(), nil
}

// Token is one space-separated token of a path or step string, with the
// byte offset it starts at (used in error reports).
type Token struct {
	Text   string
	Offset int
}

// SplitTokens splits raw on spaces, keeping double-quoted stretches
// (including their quotes and escapes) inside a single token.
func SplitTokens(raw string) ([]Token, error) {
	var tokens []Token
	start := -1
	inQuote := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '\\' && inQuote:
			i++
		case c == '"':
			inQuote = !inQuote
			if start == -1 {
				start = i
			}
		case (c == ' ' || c == '\t' || c == '\n') && !inQuote:
			if start != -1 {
				tokens = append(tokens, Token{Text: raw[start:i], Offset: start})
				start = -1
			}
		default:
			if start == -1 {
				start = i
			}
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", raw)
	}
	if start != -1 {
		tokens = append(tokens, Token{Text: raw[start:], Offset: start})
	}
	return tokens, nil
}
