package section

import (
	"fmt"
	"hash/crc32"

	"github.com/logpackio/logpack/endian"
	"github.com/logpackio/logpack/errs"
	"github.com/logpackio/logpack/format"
)

// DictBlock describes one serialized dictionary block inside the archive.
type DictBlock struct {
	Offset           uint64 // byte offset of the compressed block
	CompressedSize   uint32
	UncompressedSize uint32
	EntryCount       uint32
}

// Footer is the fixed-size structure at the end of every archive. It is the
// entry point for readers: segment blocks and dictionary blocks are located
// through its offsets.
//
// Layout (104 bytes):
//
//	offset  0- 3  magic bytes "LPK1"
//	offset  4     format version
//	offset  5     endian marker (1 little, 2 big)
//	offset  6     compression type
//	offset  7     reserved, zero
//	offset  8-15  event count
//	offset 16-19  segment count
//	offset 20-39  logtype dictionary block descriptor
//	offset 40-59  variable dictionary block descriptor
//	offset 60-67  segment index offset
//	offset 68-71  segment index size (uncompressed)
//	offset 72-79  min timestamp (epoch milliseconds)
//	offset 80-87  max timestamp (epoch milliseconds)
//	offset 88-99  reserved, zero
//	offset 100-103 CRC32-C of bytes 0-99
type Footer struct {
	Version     uint8
	Endian      uint8
	Compression format.CompressionType

	EventCount   uint64
	SegmentCount uint32

	LogtypeDict DictBlock
	VarDict     DictBlock

	SegmentIndexOffset uint64
	SegmentIndexSize   uint32

	MinTime int64
	MaxTime int64
}

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// NewFooter creates a footer for the given byte order and compression type.
func NewFooter(engine endian.EndianEngine, compression format.CompressionType) *Footer {
	endianMarker := format.EndianLittle
	if engine == endian.GetBigEndianEngine() {
		endianMarker = format.EndianBig
	}

	return &Footer{
		Version:     format.Version,
		Endian:      endianMarker,
		Compression: compression,
	}
}

// EndianEngine returns the engine matching the footer's endian marker.
func (f *Footer) EndianEngine() endian.EndianEngine {
	if f.Endian == format.EndianBig {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}

func putDictBlock(b []byte, engine endian.EndianEngine, blk DictBlock) {
	engine.PutUint64(b[0:8], blk.Offset)
	engine.PutUint32(b[8:12], blk.CompressedSize)
	engine.PutUint32(b[12:16], blk.UncompressedSize)
	engine.PutUint32(b[16:20], blk.EntryCount)
}

func parseDictBlock(b []byte, engine endian.EndianEngine) DictBlock {
	return DictBlock{
		Offset:           engine.Uint64(b[0:8]),
		CompressedSize:   engine.Uint32(b[8:12]),
		UncompressedSize: engine.Uint32(b[12:16]),
		EntryCount:       engine.Uint32(b[16:20]),
	}
}

// Bytes serializes the footer, computing the trailing checksum.
func (f *Footer) Bytes() []byte {
	b := make([]byte, format.FooterSize)
	engine := f.EndianEngine()

	b[0] = 'L'
	b[1] = 'P'
	b[2] = 'K'
	b[3] = '1'
	b[4] = f.Version
	b[5] = f.Endian
	b[6] = byte(f.Compression)

	engine.PutUint64(b[8:16], f.EventCount)
	engine.PutUint32(b[16:20], f.SegmentCount)
	putDictBlock(b[20:40], engine, f.LogtypeDict)
	putDictBlock(b[40:60], engine, f.VarDict)
	engine.PutUint64(b[60:68], f.SegmentIndexOffset)
	engine.PutUint32(b[68:72], f.SegmentIndexSize)
	engine.PutUint64(b[72:80], uint64(f.MinTime)) //nolint:gosec
	engine.PutUint64(b[80:88], uint64(f.MaxTime)) //nolint:gosec

	engine.PutUint32(b[100:104], crc32.Checksum(b[:100], crcTable))

	return b
}

// Parse decodes and validates a footer from exactly FooterSize bytes.
func (f *Footer) Parse(data []byte) error {
	if len(data) != format.FooterSize {
		return fmt.Errorf("%w: got %d bytes, want %d", errs.ErrInvalidFooter, len(data), format.FooterSize)
	}

	if data[0] != 'L' || data[1] != 'P' || data[2] != 'K' || data[3] != '1' {
		return errs.ErrInvalidMagic
	}

	f.Version = data[4]
	if f.Version != format.Version {
		return fmt.Errorf("%w: version %d", errs.ErrUnsupportedVersion, f.Version)
	}

	f.Endian = data[5]
	if f.Endian != format.EndianLittle && f.Endian != format.EndianBig {
		return fmt.Errorf("%w: marker %d", errs.ErrInvalidEndian, f.Endian)
	}
	engine := f.EndianEngine()

	if got, want := crc32.Checksum(data[:100], crcTable), engine.Uint32(data[100:104]); got != want {
		return fmt.Errorf("%w: checksum mismatch (got %08x, want %08x)", errs.ErrInvalidFooter, got, want)
	}

	f.Compression = format.CompressionType(data[6])
	switch f.Compression {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
	default:
		return fmt.Errorf("%w: type %d", errs.ErrInvalidCompression, data[6])
	}

	f.EventCount = engine.Uint64(data[8:16])
	f.SegmentCount = engine.Uint32(data[16:20])
	f.LogtypeDict = parseDictBlock(data[20:40], engine)
	f.VarDict = parseDictBlock(data[40:60], engine)
	f.SegmentIndexOffset = engine.Uint64(data[60:68])
	f.SegmentIndexSize = engine.Uint32(data[68:72])
	f.MinTime = int64(engine.Uint64(data[72:80])) //nolint:gosec
	f.MaxTime = int64(engine.Uint64(data[80:88])) //nolint:gosec

	return nil
}
