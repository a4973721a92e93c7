// Package format defines the archive format contract: reserved logtype bytes,
// variable kinds, inline encoding widths, compression identifiers and the fixed
// sizes of the binary footer and index structures.
//
// Everything in this package is compatibility-critical. Changing any constant
// breaks every archive written with the previous value.
package format

type (
	// VarKind identifies the closed set of variable representations a classified
	// token can take. Classification is a pure function from byte span to VarKind.
	VarKind uint8

	// CompressionType identifies the block codec applied to segment and
	// dictionary blocks.
	CompressionType uint8
)

const (
	// VarStatic marks a span of literal message text. It never appears in an
	// event's variable list; it exists so span classification is total.
	VarStatic VarKind = 0x0
	// VarInt is an integer variable stored inline as an 8-byte two's-complement
	// value.
	VarInt VarKind = 0x1
	// VarFloat is a float variable stored inline as a packed 8-byte encoding
	// that preserves the exact digit string and sign.
	VarFloat VarKind = 0x2
	// VarDictString is a variable too irregular for inline encoding, interned
	// in the variable dictionary and referenced by ID.
	VarDictString VarKind = 0x3
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone stores blocks verbatim.
	CompressionZstd CompressionType = 0x2 // CompressionZstd uses Zstandard block compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 uses S2 block compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 uses LZ4 block compression.
)

// Reserved logtype bytes. A serialized logtype is static text interleaved with
// placeholder markers; literal occurrences of any reserved byte in static text
// are preceded by EscapeByte.
const (
	EscapeByte  byte = 0x5C // backslash
	MarkerInt   byte = 0x11
	MarkerDict  byte = 0x12
	MarkerFloat byte = 0x13
)

const (
	// Magic identifies a logpack archive footer ("LPK1").
	Magic uint32 = 0x4C504B31
	// Version is the current archive format version.
	Version uint8 = 1

	// EndianLittle and EndianBig are the footer's byte-order markers. The
	// endian byte itself is position-independent so a reader can decode it
	// before choosing an engine.
	EndianLittle uint8 = 1
	EndianBig    uint8 = 2

	// InlineIntSize and InlineFloatSize are the fixed widths of inline-encoded
	// variables in the event stream.
	InlineIntSize   = 8
	InlineFloatSize = 8

	// FooterSize is the fixed byte length of the archive footer at EOF.
	FooterSize = 104
	// SegmentIndexEntrySize is the fixed byte length of one segment index entry.
	SegmentIndexEntrySize = 36
	// DictBlockSize is the fixed byte length of one dictionary block descriptor
	// inside the footer.
	DictBlockSize = 20
)

// Packed float encoding limits. The packed uint64 layout is:
// bit 63 sign, bits 62-58 total digit count, bits 57-53 digits after the
// point, bits 52-0 the digit string as an unsigned integer.
const (
	FloatMaxDigits = 16
	FloatMaxValue  = 1<<53 - 1
)

func (k VarKind) String() string {
	switch k {
	case VarStatic:
		return "Static"
	case VarInt:
		return "Int"
	case VarFloat:
		return "Float"
	case VarDictString:
		return "DictString"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Marker returns the reserved logtype byte for the variable kind.
// It panics for VarStatic, which has no placeholder representation.
func (k VarKind) Marker() byte {
	switch k {
	case VarInt:
		return MarkerInt
	case VarFloat:
		return MarkerFloat
	case VarDictString:
		return MarkerDict
	default:
		panic("format: VarKind has no marker byte")
	}
}

// KindForMarker returns the variable kind for a reserved marker byte,
// or VarStatic if the byte is not a marker.
func KindForMarker(b byte) VarKind {
	switch b {
	case MarkerInt:
		return VarInt
	case MarkerFloat:
		return VarFloat
	case MarkerDict:
		return VarDictString
	default:
		return VarStatic
	}
}

// IsReserved reports whether b is one of the four reserved logtype bytes.
func IsReserved(b byte) bool {
	return b == EscapeByte || b == MarkerInt || b == MarkerDict || b == MarkerFloat
}
