package archive

import (
	"fmt"
	"iter"

	"github.com/logpackio/logpack/compress"
	"github.com/logpackio/logpack/dict"
	"github.com/logpackio/logpack/endian"
	"github.com/logpackio/logpack/errs"
	"github.com/logpackio/logpack/format"
	"github.com/logpackio/logpack/message"
	"github.com/logpackio/logpack/section"
)

// Reader provides read-only access to a finalized archive.
//
// Both dictionaries are loaded fully resident at construction; logtype span
// lists are parsed once up front. After NewReader returns, the Reader is
// immutable and safe for concurrent use by multiple query goroutines.
type Reader struct {
	data   []byte
	footer section.Footer
	engine endian.EndianEngine
	codec  compress.Codec

	logtypes *dict.Dictionary
	vars     *dict.Dictionary
	index    []section.SegmentIndexEntry

	// spans holds the parsed span list for each logtype, indexed by ID.
	spans [][]message.Span

	closeFn func() error
}

// NewReader parses an archive held in memory (or memory-mapped).
//
// The data slice must remain valid for the Reader's lifetime; the Reader does
// not copy segment blocks until they are decompressed.
func NewReader(data []byte) (*Reader, error) {
	if len(data) < format.FooterSize {
		return nil, fmt.Errorf("%w: archive smaller than footer", errs.ErrInvalidFooter)
	}

	r := &Reader{data: data}
	if err := r.footer.Parse(data[len(data)-format.FooterSize:]); err != nil {
		return nil, err
	}
	r.engine = r.footer.EndianEngine()

	codec, err := compress.GetCodec(r.footer.Compression)
	if err != nil {
		return nil, err
	}
	r.codec = codec

	if r.logtypes, err = r.loadDict(r.footer.LogtypeDict, "logtype"); err != nil {
		return nil, err
	}
	if r.vars, err = r.loadDict(r.footer.VarDict, "variable"); err != nil {
		return nil, err
	}

	if err := r.loadSegmentIndex(); err != nil {
		return nil, err
	}

	r.spans = make([][]message.Span, r.logtypes.Len())
	for id := range r.spans {
		value, err := r.logtypes.Lookup(uint32(id)) //nolint:gosec
		if err != nil {
			return nil, err
		}
		spans, err := message.ParseLogtype(value)
		if err != nil {
			return nil, fmt.Errorf("logtype %d: %w", id, err)
		}
		r.spans[id] = spans
	}

	return r, nil
}

func (r *Reader) loadDict(blk section.DictBlock, name string) (*dict.Dictionary, error) {
	raw, err := r.block(blk.Offset, blk.CompressedSize, blk.UncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("%s dictionary: %w", name, err)
	}

	d, err := dict.Load(raw, int(blk.EntryCount))
	if err != nil {
		return nil, fmt.Errorf("%s dictionary: %w", name, err)
	}

	return d, nil
}

func (r *Reader) loadSegmentIndex() error {
	off, size := r.footer.SegmentIndexOffset, uint64(r.footer.SegmentIndexSize)
	if off+size > uint64(len(r.data)) {
		return fmt.Errorf("%w: segment index out of bounds", errs.ErrInvalidFooter)
	}
	if size != uint64(r.footer.SegmentCount)*format.SegmentIndexEntrySize {
		return fmt.Errorf("%w: segment index size mismatch", errs.ErrInvalidFooter)
	}

	raw := r.data[off : off+size]
	r.index = make([]section.SegmentIndexEntry, r.footer.SegmentCount)
	for i := range r.index {
		if err := r.index[i].Parse(raw[i*format.SegmentIndexEntrySize:], r.engine); err != nil {
			return err
		}
	}

	return nil
}

// block slices and decompresses one archive block, validating both bounds and
// the declared uncompressed size.
func (r *Reader) block(offset uint64, csize, usize uint32) ([]byte, error) {
	end := offset + uint64(csize)
	if end > uint64(len(r.data))-format.FooterSize {
		return nil, fmt.Errorf("%w: block out of bounds", errs.ErrCorruptSegment)
	}

	raw, err := r.codec.Decompress(r.data[offset:end])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrCorruptSegment, err)
	}
	if uint32(len(raw)) != usize { //nolint:gosec
		return nil, fmt.Errorf("%w: decompressed %d bytes, expected %d", errs.ErrCorruptSegment, len(raw), usize)
	}

	return raw, nil
}

// Close releases the underlying mapping, if any. A Reader over a plain byte
// slice closes to a no-op.
func (r *Reader) Close() error {
	if r.closeFn != nil {
		err := r.closeFn()
		r.closeFn = nil

		return err
	}

	return nil
}

// EventCount returns the total number of events in the archive.
func (r *Reader) EventCount() uint64 { return r.footer.EventCount }

// SegmentCount returns the number of segments.
func (r *Reader) SegmentCount() int { return len(r.index) }

// TimeRange returns the archive's min and max event timestamps.
func (r *Reader) TimeRange() (int64, int64) { return r.footer.MinTime, r.footer.MaxTime }

// Compression returns the archive's block codec type.
func (r *Reader) Compression() format.CompressionType { return r.footer.Compression }

// LogtypeDict exposes the resident logtype dictionary as a read-only view.
func (r *Reader) LogtypeDict() *dict.Dictionary { return r.logtypes }

// VarDict exposes the resident variable dictionary as a read-only view.
func (r *Reader) VarDict() *dict.Dictionary { return r.vars }

// SegmentIndex returns the index entry for segment i.
func (r *Reader) SegmentIndex(i int) section.SegmentIndexEntry { return r.index[i] }

// Spans returns the parsed span list of a logtype.
func (r *Reader) Spans(logtypeID uint32) ([]message.Span, error) {
	if int(logtypeID) >= len(r.spans) {
		return nil, fmt.Errorf("%w: logtype %d", errs.ErrEntryNotFound, logtypeID)
	}

	return r.spans[logtypeID], nil
}

// Segment decompresses segment i and returns it for event iteration.
func (r *Reader) Segment(i int) (*Segment, error) {
	if i < 0 || i >= len(r.index) {
		return nil, fmt.Errorf("%w: segment %d of %d", errs.ErrCorruptSegment, i, len(r.index))
	}

	entry := r.index[i]
	raw, err := r.block(entry.Offset, entry.CompressedSize, entry.UncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("segment %d: %w", i, err)
	}

	return &Segment{reader: r, data: raw, entry: entry, index: i}, nil
}

// Events iterates every event in the archive in storage order. Iteration
// stops at the first corrupt segment; callers that want to skip corrupt
// segments iterate segments explicitly.
func (r *Reader) Events() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for i := range r.index {
			seg, err := r.Segment(i)
			if err != nil {
				yield(Event{}, err)

				return
			}
			for ev, err := range seg.Events() {
				if !yield(ev, err) {
					return
				}
				if err != nil {
					return
				}
			}
		}
	}
}

// DecodeMessage reconstructs the original message text of an event.
//
// Fails with ErrVarCountMismatch if the event's variable list disagrees with
// its logtype's placeholder count, and with ErrEntryNotFound if a dictionary
// ID is unknown; both indicate a corrupt event that callers report and
// exclude rather than aborting the read.
func (r *Reader) DecodeMessage(ev Event) (string, error) {
	spans, err := r.Spans(ev.LogtypeID)
	if err != nil {
		return "", err
	}

	if got, want := len(ev.Vars), message.NumPlaceholders(spans); got != want {
		return "", fmt.Errorf("%w: event has %d variables, logtype has %d placeholders",
			errs.ErrVarCountMismatch, got, want)
	}

	return message.Reconstruct(spans, func(i int) (string, error) {
		return r.RenderVar(ev.Vars[i])
	})
}

// RenderVar renders one encoded variable back to its original text.
func (r *Reader) RenderVar(v EncodedVar) (string, error) {
	switch v.Kind {
	case format.VarInt:
		return message.RenderInt(v.Int), nil
	case format.VarFloat:
		return message.RenderFloat(v.Bits), nil
	case format.VarDictString:
		return r.vars.Lookup(v.DictID)
	default:
		return "", fmt.Errorf("%w: variable kind %d", errs.ErrDecode, v.Kind)
	}
}
