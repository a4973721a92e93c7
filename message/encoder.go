package message

import "github.com/logpackio/logpack/format"

// Variable is one extracted variable value with its kind. Exactly one of the
// payload fields is meaningful, selected by Kind.
type Variable struct {
	Kind format.VarKind
	Int  int64  // VarInt: inline value
	Bits uint64 // VarFloat: packed encoding
	Str  string // VarDictString: value to intern
}

// Render returns the variable's original text.
func (v Variable) Render() string {
	switch v.Kind {
	case format.VarInt:
		return RenderInt(v.Int)
	case format.VarFloat:
		return RenderFloat(v.Bits)
	default:
		return v.Str
	}
}

// EncodedMessage is the encoder's output for one message: the serialized
// logtype and the ordered variable list, one variable per placeholder marker.
type EncodedMessage struct {
	Logtype string
	Vars    []Variable
}

// Encode splits one raw message into its logtype and variables. Two messages
// with identical static structure and variable-kind sequence produce the same
// logtype string, so they intern to one dictionary entry.
func Encode(msg []byte) EncodedMessage {
	tokens := Tokenize(msg)

	logtype := make([]byte, 0, len(msg)+4)
	var vars []Variable

	for _, tok := range tokens {
		if tok.Kind == format.VarStatic {
			logtype = AppendConstant(logtype, tok.Text, DefaultEscapePolicy)
			continue
		}

		logtype = append(logtype, tok.Kind.Marker())
		vars = append(vars, Variable{Kind: tok.Kind, Int: tok.Int, Bits: tok.Bits, Str: tok.Text})
	}

	return EncodedMessage{Logtype: string(logtype), Vars: vars}
}
