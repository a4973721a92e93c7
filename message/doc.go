// Package message implements the encoding core: it splits a raw log message
// into a reusable logtype (static text with typed placeholder markers) and an
// ordered list of extracted variable values.
//
// Classification is a pure function from byte span to a closed variant:
// a token is an integer variable if it round-trips exactly through an int64,
// a float variable if it fits the packed digit encoding, and a dictionary
// variable otherwise. Tokens without digits, and all delimiter bytes, are
// static text.
//
// A serialized logtype is a byte string where literal occurrences of the four
// reserved bytes (escape and the three placeholder markers) are escaped. The
// in-memory representation is a span list (kind + payload), kept free of that
// ambiguity; serialization to the reserved-byte form happens only at the
// dictionary boundary.
//
// Reconstructing a message from its logtype and variable list is byte-exact:
// for every message M, decoding encode(M) yields M, including messages that
// contain literal escape or marker bytes.
package message
