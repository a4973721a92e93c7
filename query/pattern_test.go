package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logpackio/logpack/errs"
)

func TestCompile_TrailingEscape(t *testing.T) {
	_, err := Compile(`abc\`)
	require.ErrorIs(t, err, errs.ErrInvalidPattern)
}

func TestCompile_StarCollapse(t *testing.T) {
	p, err := Compile("a***b")
	require.NoError(t, err)
	require.Len(t, p.toks, 3)
	require.Equal(t, opStar, p.toks[1].kind)

	p, err = Compile("***")
	require.NoError(t, err)
	require.Len(t, p.toks, 1)
}

func TestCompile_EscapedWildcards(t *testing.T) {
	p, err := Compile(`a\*b\?c\\d`)
	require.NoError(t, err)
	require.False(t, p.HasWildcard())
	require.Equal(t, `a*b?c\d`, p.Literal())
}

func TestPattern_LiteralPrefix(t *testing.T) {
	tests := []struct {
		pattern string
		prefix  string
	}{
		{"user *", "user "},
		{"*tail", ""},
		{"?x", ""},
		{"plain", "plain"},
		{`esc\*aped*`, "esc*aped"},
	}
	for _, tt := range tests {
		p, err := Compile(tt.pattern)
		require.NoError(t, err)
		require.Equal(t, tt.prefix, p.LiteralPrefix(), "pattern %q", tt.pattern)
	}
}

func TestPattern_Match(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"*", "", true},
		{"*", "anything at all", true},
		{"", "", true},
		{"", "x", false},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"a?c", "abbc", false},
		{"a*c", "ac", true},
		{"a*c", "aXYZc", true},
		{"a*c", "ab", false},
		{"abc", "abc", true},
		{"abc", "abd", false},
		{"?", "", false},
		{"?", "x", true},
		{"*a*", "banana", true},
		{"*a*", "zzz", false},
		{"*na", "banana", true},
		{"ba*", "banana", true},
		{"*x*y*", "axbycz", true},
		{"*x*y*", "aybxcz", false},
		{`a\*c`, "a*c", true},
		{`a\*c`, "abc", false},
		{`a\?c`, "a?c", true},
		{`\\`, `\`, true},
	}
	for _, tt := range tests {
		p, err := Compile(tt.pattern)
		require.NoError(t, err)
		require.Equal(t, tt.want, p.Match(tt.input), "pattern %q input %q", tt.pattern, tt.input)
	}
}

func TestPattern_MatchFold(t *testing.T) {
	p, err := Compile("User*IN")
	require.NoError(t, err)
	require.False(t, p.Match("user logged in"))
	require.True(t, p.MatchFold("user logged in", true))
	require.True(t, p.MatchFold("USER LOGGED IN", true))
	require.False(t, p.MatchFold("user logged out", true))
}

func TestLogtypeSafePrefix(t *testing.T) {
	tests := []struct {
		lit  string
		want string
	}{
		// Unterminated trailing token is dropped: a wildcard may extend it
		// with a digit, turning it into a variable.
		{"user", ""},
		{"user ", "user "},
		{"user 42", "user "},
		// A fully delimited digit-bearing token is a variable in every
		// matching message, so the prefix stops before it.
		{"error42 next", ""},
		{"open file: ", "open file: "},
		{"a  b ", "a  b "},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, logtypeSafePrefix(tt.lit), "literal %q", tt.lit)
	}
}
