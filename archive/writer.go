package archive

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/logpackio/logpack/compress"
	"github.com/logpackio/logpack/dict"
	"github.com/logpackio/logpack/endian"
	"github.com/logpackio/logpack/errs"
	"github.com/logpackio/logpack/format"
	"github.com/logpackio/logpack/internal/options"
	"github.com/logpackio/logpack/internal/pool"
	"github.com/logpackio/logpack/message"
	"github.com/logpackio/logpack/section"
)

// DefaultTargetSegmentSize is the uncompressed event-stream size at which the
// current segment is flushed.
const DefaultTargetSegmentSize = 1024 * 1024 // 1MiB

// Stats summarizes a finished archive. The compression pipeline reports these
// to its caller, which typically registers them with the metadata catalog.
type Stats struct {
	EventCount   uint64
	SegmentCount uint32
	LogtypeCount uint32
	VarCount     uint32
	// UncompressedSize is the total byte length of all appended messages.
	UncompressedSize uint64
	// CompressedSize is the total byte length of the archive.
	CompressedSize uint64
	MinTime        int64
	MaxTime        int64
}

// Writer encodes log messages into an archive written to dst.
//
// Note: The Writer is NOT thread-safe. Dictionary ID assignment is stateful,
// so Append calls must be serialized by a single goroutine.
//
// Note: The Writer is NOT reusable. After calling Finish, a new writer must
// be created for further encoding.
type Writer struct {
	dst    io.Writer
	engine endian.EndianEngine

	compression       format.CompressionType
	codec             compress.Codec
	targetSegmentSize int

	logtypes *dict.Dictionary
	vars     *dict.Dictionary

	// Current segment state.
	seg       *pool.ByteBuffer
	segEvents uint32
	segMin    int64
	segMax    int64
	lastTS    int64

	index   []section.SegmentIndexEntry
	offset  uint64
	written uint64

	eventCount uint64
	rawBytes   uint64
	minTime    int64
	maxTime    int64

	finished bool
}

// WriterOption configures a Writer.
type WriterOption = options.Option[*Writer]

// WithCompression selects the block codec for segment and dictionary blocks.
func WithCompression(compression format.CompressionType) WriterOption {
	return options.New(func(w *Writer) error {
		if _, err := compress.GetCodec(compression); err != nil {
			return err
		}
		w.compression = compression

		return nil
	})
}

// WithLittleEndian selects little-endian byte order (the default).
func WithLittleEndian() WriterOption {
	return options.NoError(func(w *Writer) {
		w.engine = endian.GetLittleEndianEngine()
	})
}

// WithBigEndian selects big-endian byte order.
func WithBigEndian() WriterOption {
	return options.NoError(func(w *Writer) {
		w.engine = endian.GetBigEndianEngine()
	})
}

// WithTargetSegmentSize sets the uncompressed size threshold that triggers a
// segment flush. Smaller segments increase parallelism and pruning
// granularity on the read path at the cost of compression ratio.
func WithTargetSegmentSize(size int) WriterOption {
	return options.New(func(w *Writer) error {
		if size <= 0 {
			return fmt.Errorf("invalid target segment size %d", size)
		}
		w.targetSegmentSize = size

		return nil
	})
}

// NewWriter creates a Writer emitting an archive to dst.
//
// Parameters:
//   - dst: Destination stream; the archive is written strictly sequentially,
//     no seeking is required
//   - opts: Optional configuration (endianness, compression, segment size)
//
// Returns:
//   - *Writer: New writer ready for Append calls
//   - error: Configuration error if invalid options provided
func NewWriter(dst io.Writer, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		dst:               dst,
		engine:            endian.GetLittleEndianEngine(),
		compression:       format.CompressionZstd,
		targetSegmentSize: DefaultTargetSegmentSize,
		logtypes:          dict.New(),
		vars:              dict.New(),
		seg:               pool.GetSegmentBuffer(),
	}

	if err := options.Apply(w, opts...); err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(w.compression)
	if err != nil {
		return nil, err
	}
	w.codec = codec

	return w, nil
}

// Append encodes one message and adds it to the archive.
//
// The timestamp is epoch milliseconds and is stored alongside the event; it
// is indexing metadata, not message content, so it does not participate in
// the lossless round trip of the message bytes.
//
// Messages may arrive in any timestamp order; segment and archive time ranges
// track minimum and maximum independently.
func (w *Writer) Append(timestamp int64, msg []byte) error {
	if w.finished {
		return errs.ErrWriterFinished
	}

	enc := message.Encode(msg)

	logtypeID, err := w.logtypes.Intern(enc.Logtype)
	if err != nil {
		return fmt.Errorf("intern logtype: %w", err)
	}

	// Timestamp delta from the previous event in this segment; the first
	// event's delta is from zero so segments decode independently.
	w.seg.B = binary.AppendVarint(w.seg.B, timestamp-w.lastTS)
	w.lastTS = timestamp

	w.seg.B = binary.AppendUvarint(w.seg.B, uint64(logtypeID))

	for _, v := range enc.Vars {
		switch v.Kind {
		case format.VarInt:
			w.seg.B = w.engine.AppendUint64(w.seg.B, uint64(v.Int)) //nolint:gosec
		case format.VarFloat:
			w.seg.B = w.engine.AppendUint64(w.seg.B, v.Bits)
		case format.VarDictString:
			varID, err := w.vars.Intern(v.Str)
			if err != nil {
				return fmt.Errorf("intern variable: %w", err)
			}
			w.seg.B = binary.AppendUvarint(w.seg.B, uint64(varID))
		}
	}

	if w.segEvents == 0 {
		w.segMin, w.segMax = timestamp, timestamp
	} else {
		w.segMin = min(w.segMin, timestamp)
		w.segMax = max(w.segMax, timestamp)
	}
	if w.eventCount == 0 {
		w.minTime, w.maxTime = timestamp, timestamp
	} else {
		w.minTime = min(w.minTime, timestamp)
		w.maxTime = max(w.maxTime, timestamp)
	}

	w.segEvents++
	w.eventCount++
	w.rawBytes += uint64(len(msg))

	if w.seg.Len() >= w.targetSegmentSize {
		return w.flushSegment()
	}

	return nil
}

// flushSegment compresses and writes the buffered segment, recording its
// index entry. No-op when the segment is empty.
func (w *Writer) flushSegment() error {
	if w.segEvents == 0 {
		return nil
	}

	compressed, err := w.codec.Compress(w.seg.Bytes())
	if err != nil {
		return fmt.Errorf("compress segment: %w", err)
	}

	if _, err := w.dst.Write(compressed); err != nil {
		return fmt.Errorf("write segment: %w", err)
	}

	w.index = append(w.index, section.SegmentIndexEntry{
		Offset:           w.offset,
		CompressedSize:   uint32(len(compressed)), //nolint:gosec
		UncompressedSize: uint32(w.seg.Len()),     //nolint:gosec
		EventCount:       w.segEvents,
		MinTime:          w.segMin,
		MaxTime:          w.segMax,
	})

	w.offset += uint64(len(compressed))
	w.seg.Reset()
	w.segEvents = 0
	w.lastTS = 0

	return nil
}

// writeDict serializes, compresses and writes one dictionary, returning its
// block descriptor.
func (w *Writer) writeDict(d *dict.Dictionary) (section.DictBlock, error) {
	buf := pool.GetArchiveBuffer()
	defer pool.PutArchiveBuffer(buf)
	buf.B = d.AppendEncoded(buf.B)
	raw := buf.Bytes()

	compressed, err := w.codec.Compress(raw)
	if err != nil {
		return section.DictBlock{}, fmt.Errorf("compress dictionary: %w", err)
	}

	if _, err := w.dst.Write(compressed); err != nil {
		return section.DictBlock{}, fmt.Errorf("write dictionary: %w", err)
	}

	blk := section.DictBlock{
		Offset:           w.offset,
		CompressedSize:   uint32(len(compressed)), //nolint:gosec
		UncompressedSize: uint32(len(raw)),        //nolint:gosec
		EntryCount:       uint32(d.Len()),         //nolint:gosec
	}
	w.offset += uint64(len(compressed))

	return blk, nil
}

// Finish flushes the pending segment, writes both dictionaries, the segment
// index and the footer, and returns the archive statistics.
// After calling Finish, the writer cannot be reused.
func (w *Writer) Finish() (*Stats, error) {
	if w.finished {
		return nil, errs.ErrWriterFinished
	}
	if w.eventCount == 0 {
		return nil, errs.ErrNoEvents
	}

	defer func() {
		if w.seg != nil {
			pool.PutSegmentBuffer(w.seg)
			w.seg = nil
		}
	}()

	if err := w.flushSegment(); err != nil {
		return nil, err
	}
	w.finished = true

	w.logtypes.Finalize()
	w.vars.Finalize()

	footer := section.NewFooter(w.engine, w.compression)
	footer.EventCount = w.eventCount
	footer.SegmentCount = uint32(len(w.index)) //nolint:gosec
	footer.MinTime = w.minTime
	footer.MaxTime = w.maxTime

	var err error
	if footer.LogtypeDict, err = w.writeDict(w.logtypes); err != nil {
		return nil, err
	}
	if footer.VarDict, err = w.writeDict(w.vars); err != nil {
		return nil, err
	}

	indexBytes := make([]byte, len(w.index)*format.SegmentIndexEntrySize)
	for i := range w.index {
		off := i * format.SegmentIndexEntrySize
		if err := w.index[i].WriteToSlice(indexBytes[off:], w.engine); err != nil {
			return nil, err
		}
	}
	if _, err := w.dst.Write(indexBytes); err != nil {
		return nil, fmt.Errorf("write segment index: %w", err)
	}
	footer.SegmentIndexOffset = w.offset
	footer.SegmentIndexSize = uint32(len(indexBytes)) //nolint:gosec
	w.offset += uint64(len(indexBytes))

	if _, err := w.dst.Write(footer.Bytes()); err != nil {
		return nil, fmt.Errorf("write footer: %w", err)
	}
	w.written = w.offset + format.FooterSize

	return &Stats{
		EventCount:       w.eventCount,
		SegmentCount:     footer.SegmentCount,
		LogtypeCount:     uint32(w.logtypes.Len()), //nolint:gosec
		VarCount:         uint32(w.vars.Len()),     //nolint:gosec
		UncompressedSize: w.rawBytes,
		CompressedSize:   w.written,
		MinTime:          w.minTime,
		MaxTime:          w.maxTime,
	}, nil
}
