package message

import (
	"strconv"
	"strings"

	"github.com/logpackio/logpack/format"
)

// Packed float layout (uint64):
//
//	bit  63     sign (1 = negative)
//	bits 62-58  total digit count D (1-16)
//	bits 57-53  digits after the point P (1 <= P < D)
//	bits 52-0   the digit string, without sign or point, as an unsigned integer
//
// Rendering left-pads the digit value to D digits and inserts the point P
// digits from the right, which preserves leading zeros such as "0.25" and
// "00.5" exactly.
const (
	floatSignBit    = 1 << 63
	floatDigitShift = 58
	floatPointShift = 53
	floatValueMask  = format.FloatMaxValue
)

// PackFloat attempts to encode a token of the form -?digits.digits into the
// packed inline representation.
//
// Returns:
//   - uint64: Packed encoding
//   - bool: false if the token does not have the required shape or its digits
//     exceed the encoding's capacity; the caller downgrades it to a
//     dictionary variable
func PackFloat(token string) (uint64, bool) {
	if len(token) == 0 {
		return 0, false
	}

	var sign uint64
	body := token
	if body[0] == '-' {
		sign = floatSignBit
		body = body[1:]
	}

	point := strings.IndexByte(body, '.')
	if point <= 0 || point == len(body)-1 {
		return 0, false
	}
	if strings.IndexByte(body[point+1:], '.') >= 0 {
		return 0, false
	}

	digits := body[:point] + body[point+1:]
	if len(digits) > format.FloatMaxDigits {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}

	value, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || value > format.FloatMaxValue {
		return 0, false
	}

	d := uint64(len(digits))
	p := uint64(len(body) - point - 1)

	return sign | d<<floatDigitShift | p<<floatPointShift | value, true
}

// RenderFloat reverses PackFloat, reproducing the original token text exactly.
func RenderFloat(packed uint64) string {
	d := int(packed >> floatDigitShift & 0x1F)
	p := int(packed >> floatPointShift & 0x1F)
	value := packed & floatValueMask

	digits := strconv.FormatUint(value, 10)
	if pad := d - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}

	var b strings.Builder
	b.Grow(d + 2)
	if packed&floatSignBit != 0 {
		b.WriteByte('-')
	}
	b.WriteString(digits[:d-p])
	b.WriteByte('.')
	b.WriteString(digits[d-p:])

	return b.String()
}

// RenderInt renders an inline integer variable back to its original text.
// Integer classification requires an exact parse/format round trip, so plain
// FormatInt reproduces the token.
func RenderInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
