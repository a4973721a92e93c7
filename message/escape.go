package message

import (
	"fmt"

	"github.com/logpackio/logpack/errs"
	"github.com/logpackio/logpack/format"
)

// EscapePolicy reports whether a static byte must be preceded by the escape
// byte in a serialized logtype.
type EscapePolicy func(b byte) bool

// DefaultEscapePolicy escapes the four reserved logtype bytes: the escape byte
// itself and the three placeholder markers.
func DefaultEscapePolicy(b byte) bool {
	return format.IsReserved(b)
}

// AppendConstant appends text to a growing serialized logtype, inserting the
// escape byte immediately before each byte the policy flags. Clean runs are
// copied verbatim, so input without reserved bytes pays no escaping cost.
//
// The function is incremental: one logtype is typically built from several
// static spans interleaved with marker bytes.
//
// Parameters:
//   - dst: Logtype buffer being built (may be nil)
//   - text: Static span to append
//   - policy: Escape policy, typically DefaultEscapePolicy
//
// Returns:
//   - []byte: dst with the escaped span appended
func AppendConstant(dst []byte, text string, policy EscapePolicy) []byte {
	start := 0
	for i := 0; i < len(text); i++ {
		if policy(text[i]) {
			dst = append(dst, text[start:i]...)
			dst = append(dst, format.EscapeByte, text[i])
			start = i + 1
		}
	}

	return append(dst, text[start:]...)
}

// Span is one element of a parsed logtype: either a run of literal text or a
// single typed placeholder.
type Span struct {
	// Kind is VarStatic for literal text, otherwise the placeholder's
	// variable kind.
	Kind format.VarKind
	// Text holds the unescaped literal bytes for static spans. It is empty
	// for placeholder spans.
	Text string
}

// ParseLogtype decodes a serialized logtype string into its span list,
// undoing escaping. Placeholder markers become variable spans in order.
//
// Returns ErrCorruptLogtype if the string ends with an unpaired escape byte.
func ParseLogtype(logtype string) ([]Span, error) {
	spans := make([]Span, 0, 8)
	var static []byte

	flush := func() {
		if len(static) > 0 {
			spans = append(spans, Span{Kind: format.VarStatic, Text: string(static)})
			static = static[:0]
		}
	}

	for i := 0; i < len(logtype); i++ {
		b := logtype[i]
		switch {
		case b == format.EscapeByte:
			if i+1 >= len(logtype) {
				return nil, fmt.Errorf("%w: trailing escape byte", errs.ErrCorruptLogtype)
			}
			i++
			static = append(static, logtype[i])
		case format.KindForMarker(b) != format.VarStatic:
			flush()
			spans = append(spans, Span{Kind: format.KindForMarker(b)})
		default:
			static = append(static, b)
		}
	}
	flush()

	return spans, nil
}

// NumPlaceholders counts the variable spans in a parsed logtype.
func NumPlaceholders(spans []Span) int {
	n := 0
	for _, s := range spans {
		if s.Kind != format.VarStatic {
			n++
		}
	}

	return n
}

// Reconstruct rebuilds the original message text from a parsed logtype,
// calling resolve with the placeholder ordinal for each variable span.
//
// The result is byte-identical to the message the logtype was encoded from,
// provided resolve renders each variable exactly.
func Reconstruct(spans []Span, resolve func(i int) (string, error)) (string, error) {
	size := 0
	for _, s := range spans {
		size += len(s.Text)
	}

	out := make([]byte, 0, size+16)
	varIdx := 0
	for _, s := range spans {
		if s.Kind == format.VarStatic {
			out = append(out, s.Text...)
			continue
		}

		text, err := resolve(varIdx)
		if err != nil {
			return "", err
		}
		out = append(out, text...)
		varIdx++
	}

	return string(out), nil
}
