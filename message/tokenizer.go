package message

import (
	"strconv"

	"github.com/logpackio/logpack/format"
)

// Token boundary policy: ASCII whitespace and a fixed punctuation set delimit
// tokens. Sign, point, path and identifier characters are token constituents
// so that "-42", "3.14", "/var/log2" and "req_1a2b" each stay one token.
//
// This set is part of the archive format contract: changing it changes which
// logtypes messages map to.
var delimiters = [256]bool{
	' ': true, '\t': true, '\r': true, '\n': true,
	'(': true, ')': true, '[': true, ']': true, '{': true, '}': true,
	':': true, ',': true, ';': true, '!': true, '?': true,
	'"': true, '\'': true, '=': true, '|': true, '&': true,
	'<': true, '>': true,
}

// IsDelimiter reports whether b terminates a variable token.
func IsDelimiter(b byte) bool {
	return delimiters[b]
}

// Token is one classified span of a message. Static tokens carry only text;
// variable tokens additionally carry their inline encoding where applicable.
type Token struct {
	Kind format.VarKind
	Text string
	Int  int64  // inline value for VarInt
	Bits uint64 // packed encoding for VarFloat
}

// Tokenize scans a raw message left to right and classifies maximal runs as
// static text or typed variables. The concatenation of all token texts equals
// the input byte-for-byte.
func Tokenize(msg []byte) []Token {
	tokens := make([]Token, 0, 16)
	i := 0
	staticStart := -1

	flushStatic := func(end int) {
		if staticStart >= 0 {
			tokens = append(tokens, Token{Kind: format.VarStatic, Text: string(msg[staticStart:end])})
			staticStart = -1
		}
	}

	for i < len(msg) {
		if delimiters[msg[i]] {
			if staticStart < 0 {
				staticStart = i
			}
			i++

			continue
		}

		// Maximal non-delimiter run.
		start := i
		hasDigit := false
		for i < len(msg) && !delimiters[msg[i]] {
			if msg[i] >= '0' && msg[i] <= '9' {
				hasDigit = true
			}
			i++
		}

		if !hasDigit {
			// Digit-less tokens are static; merge into the surrounding run.
			if staticStart < 0 {
				staticStart = start
			}

			continue
		}

		flushStatic(start)
		tokens = append(tokens, classify(string(msg[start:i])))
	}
	flushStatic(len(msg))

	return tokens
}

// classify maps one digit-bearing token to its variable kind. A token that
// cannot be represented exactly by an inline encoding downgrades to a
// dictionary variable; classification never fails.
func classify(token string) Token {
	if v, err := strconv.ParseInt(token, 10, 64); err == nil {
		// Exact round trip required: "007" and "-0" render differently and
		// must stay dictionary variables.
		if strconv.FormatInt(v, 10) == token {
			return Token{Kind: format.VarInt, Text: token, Int: v}
		}
	}

	if bits, ok := PackFloat(token); ok {
		return Token{Kind: format.VarFloat, Text: token, Bits: bits}
	}

	return Token{Kind: format.VarDictString, Text: token}
}
