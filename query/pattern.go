package query

import (
	"fmt"
	"strings"

	"github.com/logpackio/logpack/errs"
)

// Wildcard syntax: `*` matches zero or more characters, `?` matches exactly
// one, and a backslash escapes the next character (including itself). Any
// other byte matches itself.

type opKind uint8

const (
	opLiteral opKind = iota
	opStar
	opAnyChar
)

type token struct {
	kind opKind
	lit  string // opLiteral only
}

// Pattern is a compiled wildcard search string: a sequence of literal
// fragments and wildcard tokens. Compilation collapses consecutive `*` and
// merges adjacent literals; whether a fragment falls inside a variable or in
// static text is resolved during matching against actual logtypes.
type Pattern struct {
	raw  string
	toks []token
}

// Compile parses a wildcard search string.
//
// Returns ErrInvalidPattern on malformed syntax; the only malformation is an
// unterminated trailing escape.
func Compile(raw string) (*Pattern, error) {
	p := &Pattern{raw: raw}

	var lit []byte
	flush := func() {
		if len(lit) > 0 {
			p.toks = append(p.toks, token{kind: opLiteral, lit: string(lit)})
			lit = lit[:0]
		}
	}

	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '\\':
			if i+1 >= len(raw) {
				return nil, fmt.Errorf("%w: unterminated escape at end of %q", errs.ErrInvalidPattern, raw)
			}
			i++
			lit = append(lit, raw[i])
		case '*':
			flush()
			// Consecutive stars collapse to one.
			if len(p.toks) == 0 || p.toks[len(p.toks)-1].kind != opStar {
				p.toks = append(p.toks, token{kind: opStar})
			}
		case '?':
			flush()
			p.toks = append(p.toks, token{kind: opAnyChar})
		default:
			lit = append(lit, raw[i])
		}
	}
	flush()

	return p, nil
}

// String returns the original search string.
func (p *Pattern) String() string { return p.raw }

// HasWildcard reports whether the pattern contains any unescaped wildcard.
// A pattern without wildcards is an exact-match probe: the searcher encodes
// it like a message and probes the dictionaries instead of scanning.
func (p *Pattern) HasWildcard() bool {
	for _, t := range p.toks {
		if t.kind != opLiteral {
			return true
		}
	}

	return false
}

// Literal returns the unescaped literal text. Meaningful only when
// HasWildcard is false, in which case the pattern matches exactly this text.
func (p *Pattern) Literal() string {
	var sb strings.Builder
	for _, t := range p.toks {
		if t.kind == opLiteral {
			sb.WriteString(t.lit)
		}
	}

	return sb.String()
}

// LiteralPrefix returns the literal fragment preceding the first wildcard.
func (p *Pattern) LiteralPrefix() string {
	if len(p.toks) > 0 && p.toks[0].kind == opLiteral {
		return p.toks[0].lit
	}

	return ""
}

// Match evaluates the pattern against a plain string, case-sensitively.
// The pattern must match the entire string.
func (p *Pattern) Match(s string) bool {
	return p.MatchFold(s, false)
}

// MatchFold evaluates the pattern against a plain string, optionally with
// ASCII case folding.
func (p *Pattern) MatchFold(s string, fold bool) bool {
	t := &target{fold: fold}
	if len(s) > 0 {
		t.parts = append(t.parts, part{text: s, known: true})
	}

	return matchTarget(p.toks, t)
}
