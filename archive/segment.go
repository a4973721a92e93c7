package archive

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/logpackio/logpack/errs"
	"github.com/logpackio/logpack/format"
	"github.com/logpackio/logpack/section"
)

// EncodedVar is one variable encoding from the event stream: an inline
// numeric value or a dictionary-variable ID, selected by Kind.
type EncodedVar struct {
	Kind   format.VarKind
	Int    int64  // VarInt: inline value
	Bits   uint64 // VarFloat: packed encoding
	DictID uint32 // VarDictString: variable dictionary ID
}

// Event is one decoded event record: a timestamp, a logtype reference and the
// ordered variable encodings matching the logtype's placeholders.
type Event struct {
	Timestamp int64
	LogtypeID uint32
	Vars      []EncodedVar
}

// Segment is one decompressed segment block ready for event iteration.
// Segments are independent: each starts its timestamp delta chain from zero,
// so they can be scanned in parallel.
type Segment struct {
	reader *Reader
	data   []byte
	entry  section.SegmentIndexEntry
	index  int
}

// Index returns the segment's position in the archive.
func (s *Segment) Index() int { return s.index }

// EventCount returns the number of events recorded for this segment.
func (s *Segment) EventCount() int { return int(s.entry.EventCount) }

// TimeRange returns the segment's min and max event timestamps.
func (s *Segment) TimeRange() (int64, int64) { return s.entry.MinTime, s.entry.MaxTime }

// Events iterates the segment's events in storage order.
//
// A decode failure yields the error once and stops: the event stream is
// variable-width, so decoding cannot resynchronize past a corrupt event. The
// caller reports the segment as corrupt and continues with other segments.
func (s *Segment) Events() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		data := s.data
		var lastTS int64
		decoded := uint32(0)

		for len(data) > 0 {
			ev, rest, err := s.decodeEvent(data, lastTS)
			if err != nil {
				yield(Event{}, fmt.Errorf("segment %d, event %d: %w", s.index, decoded, err))

				return
			}
			lastTS = ev.Timestamp
			data = rest
			decoded++

			if !yield(ev, nil) {
				return
			}
		}

		if decoded != s.entry.EventCount {
			yield(Event{}, fmt.Errorf("%w: segment %d decoded %d events, index declares %d",
				errs.ErrCorruptSegment, s.index, decoded, s.entry.EventCount))
		}
	}
}

// decodeEvent decodes one event from the head of data, returning the
// remainder of the stream.
func (s *Segment) decodeEvent(data []byte, lastTS int64) (Event, []byte, error) {
	delta, n := binary.Varint(data)
	if n <= 0 {
		return Event{}, nil, fmt.Errorf("%w: bad timestamp varint", errs.ErrDecode)
	}
	data = data[n:]

	logtypeID, n := binary.Uvarint(data)
	if n <= 0 {
		return Event{}, nil, fmt.Errorf("%w: bad logtype varint", errs.ErrDecode)
	}
	data = data[n:]

	spans, err := s.reader.Spans(uint32(logtypeID)) //nolint:gosec
	if err != nil {
		return Event{}, nil, err
	}

	ev := Event{
		Timestamp: lastTS + delta,
		LogtypeID: uint32(logtypeID), //nolint:gosec
	}

	for _, span := range spans {
		switch span.Kind {
		case format.VarStatic:
			continue
		case format.VarInt:
			if len(data) < format.InlineIntSize {
				return Event{}, nil, fmt.Errorf("%w: truncated inline integer", errs.ErrDecode)
			}
			v := int64(s.reader.engine.Uint64(data[:format.InlineIntSize])) //nolint:gosec
			data = data[format.InlineIntSize:]
			ev.Vars = append(ev.Vars, EncodedVar{Kind: format.VarInt, Int: v})
		case format.VarFloat:
			if len(data) < format.InlineFloatSize {
				return Event{}, nil, fmt.Errorf("%w: truncated inline float", errs.ErrDecode)
			}
			bits := s.reader.engine.Uint64(data[:format.InlineFloatSize])
			data = data[format.InlineFloatSize:]
			ev.Vars = append(ev.Vars, EncodedVar{Kind: format.VarFloat, Bits: bits})
		case format.VarDictString:
			id, n := binary.Uvarint(data)
			if n <= 0 {
				return Event{}, nil, fmt.Errorf("%w: bad variable ID varint", errs.ErrDecode)
			}
			data = data[n:]
			ev.Vars = append(ev.Vars, EncodedVar{Kind: format.VarDictString, DictID: uint32(id)}) //nolint:gosec
		}
	}

	return ev, data, nil
}
