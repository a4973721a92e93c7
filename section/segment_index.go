package section

import (
	"fmt"

	"github.com/logpackio/logpack/endian"
	"github.com/logpackio/logpack/errs"
	"github.com/logpackio/logpack/format"
)

// SegmentIndexEntry locates one segment block and summarizes its contents so
// readers can prune segments by timestamp range without touching block data.
//
// Layout (36 bytes):
//
//	offset  0- 7  block offset
//	offset  8-11  compressed size
//	offset 12-15  uncompressed size
//	offset 16-19  event count
//	offset 20-27  min timestamp (epoch milliseconds)
//	offset 28-35  max timestamp (epoch milliseconds)
type SegmentIndexEntry struct {
	Offset           uint64
	CompressedSize   uint32
	UncompressedSize uint32
	EventCount       uint32
	MinTime          int64
	MaxTime          int64
}

// WriteToSlice serializes the entry into buf, which must hold at least
// SegmentIndexEntrySize bytes.
func (e *SegmentIndexEntry) WriteToSlice(buf []byte, engine endian.EndianEngine) error {
	if len(buf) < format.SegmentIndexEntrySize {
		return fmt.Errorf("%w: segment index buffer too small", errs.ErrInvalidFooter)
	}

	engine.PutUint64(buf[0:8], e.Offset)
	engine.PutUint32(buf[8:12], e.CompressedSize)
	engine.PutUint32(buf[12:16], e.UncompressedSize)
	engine.PutUint32(buf[16:20], e.EventCount)
	engine.PutUint64(buf[20:28], uint64(e.MinTime)) //nolint:gosec
	engine.PutUint64(buf[28:36], uint64(e.MaxTime)) //nolint:gosec

	return nil
}

// Parse decodes the entry from buf, which must hold at least
// SegmentIndexEntrySize bytes.
func (e *SegmentIndexEntry) Parse(buf []byte, engine endian.EndianEngine) error {
	if len(buf) < format.SegmentIndexEntrySize {
		return fmt.Errorf("%w: segment index truncated", errs.ErrInvalidFooter)
	}

	e.Offset = engine.Uint64(buf[0:8])
	e.CompressedSize = engine.Uint32(buf[8:12])
	e.UncompressedSize = engine.Uint32(buf[12:16])
	e.EventCount = engine.Uint32(buf[16:20])
	e.MinTime = int64(engine.Uint64(buf[20:28])) //nolint:gosec
	e.MaxTime = int64(engine.Uint64(buf[28:36])) //nolint:gosec

	return nil
}

// Overlaps reports whether the segment's time range intersects
// [minTime, maxTime]. The value receiver lets callers invoke it directly on
// index lookups.
func (e SegmentIndexEntry) Overlaps(minTime, maxTime int64) bool {
	return e.MinTime <= maxTime && e.MaxTime >= minTime
}
