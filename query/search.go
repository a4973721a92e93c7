package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/logpackio/logpack/archive"
	"github.com/logpackio/logpack/dict"
	"github.com/logpackio/logpack/errs"
	"github.com/logpackio/logpack/format"
	"github.com/logpackio/logpack/internal/options"
	"github.com/logpackio/logpack/message"
)

// Match is one event whose reconstructed message satisfied the pattern.
type Match struct {
	// Timestamp is the event's timestamp in Unix milliseconds.
	Timestamp int64
	// Message is the byte-exact original message text.
	Message string
	// Segment is the index of the segment the event was read from.
	Segment int
}

// Searcher runs wildcard queries against one archive. It is safe for
// concurrent use; each Search call scans independently.
type Searcher struct {
	reader  *archive.Reader
	workers int
	fold    bool
	minTime int64
	maxTime int64
}

// SearchOption configures a Searcher during creation.
type SearchOption = options.Option[*Searcher]

// WithCaseInsensitive makes matching fold ASCII letter case. Folding disables
// both the dictionary prefix narrowing and the exact-probe fast path, so
// case-insensitive queries scan more of the logtype dictionary.
func WithCaseInsensitive() SearchOption {
	return options.NoError(func(s *Searcher) {
		s.fold = true
	})
}

// WithWorkers sets the number of segments scanned concurrently.
// The default is runtime.GOMAXPROCS(0).
func WithWorkers(n int) SearchOption {
	return options.New(func(s *Searcher) error {
		if n <= 0 {
			return fmt.Errorf("worker count must be positive, got %d", n)
		}
		s.workers = n

		return nil
	})
}

// WithTimeRange restricts the search to events with minTime <= ts <= maxTime.
// Segments whose index range falls entirely outside are never decompressed.
func WithTimeRange(minTime, maxTime int64) SearchOption {
	return options.New(func(s *Searcher) error {
		if minTime > maxTime {
			return fmt.Errorf("invalid time range [%d, %d]", minTime, maxTime)
		}
		s.minTime = minTime
		s.maxTime = maxTime

		return nil
	})
}

// NewSearcher creates a Searcher over an open archive reader.
func NewSearcher(r *archive.Reader, opts ...SearchOption) (*Searcher, error) {
	s := &Searcher{
		reader:  r,
		workers: runtime.GOMAXPROCS(0),
		minTime: math.MinInt64,
		maxTime: math.MaxInt64,
	}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	return s, nil
}

// logtypeMatcher adapts a compiled pattern to the dictionary scan interface.
// Matching a serialized logtype treats each placeholder marker as an unknown
// part, so a logtype survives iff some variable assignment could satisfy the
// pattern.
type logtypeMatcher struct {
	toks   []token
	prefix string
	fold   bool
}

func (m *logtypeMatcher) LiteralPrefix() string { return m.prefix }

func (m *logtypeMatcher) Match(value string) bool {
	spans, err := message.ParseLogtype(value)
	if err != nil {
		return false
	}

	return matchTarget(m.toks, logtypeTarget(spans, m.fold))
}

var _ dict.Matcher = (*logtypeMatcher)(nil)

// logtypeSafePrefix converts the pattern's leading literal into a prefix of
// the serialized logtype. Only fully delimited tokens without digits are kept:
// a digit-bearing token is a variable in every matching message, and a
// trailing unterminated token may gain a digit from the characters a wildcard
// consumes. The kept text is escaped the same way the encoder escapes static
// text.
func logtypeSafePrefix(lit string) string {
	safe := 0
	hasDigit := false
	for i := 0; i < len(lit); i++ {
		b := lit[i]
		switch {
		case message.IsDelimiter(b):
			if hasDigit {
				return string(message.AppendConstant(nil, lit[:safe], message.DefaultEscapePolicy))
			}
			safe = i + 1
		case b >= '0' && b <= '9':
			hasDigit = true
		}
	}

	return string(message.AppendConstant(nil, lit[:safe], message.DefaultEscapePolicy))
}

// Search finds every event whose original message matches the wildcard
// pattern, in storage order.
//
// Corrupt segments and events are skipped rather than aborting the scan; the
// matches found elsewhere are returned together with the joined errors.
// Returns ErrInvalidPattern if the pattern is malformed.
func (s *Searcher) Search(ctx context.Context, pattern string) ([]Match, error) {
	p, err := Compile(pattern)
	if err != nil {
		return nil, err
	}

	if !p.HasWildcard() && !s.fold {
		return s.exactSearch(ctx, p.Literal())
	}

	prefix := ""
	if !s.fold {
		prefix = logtypeSafePrefix(p.LiteralPrefix())
	}
	m := &logtypeMatcher{toks: p.toks, prefix: prefix, fold: s.fold}

	candidates := make(map[uint32][]message.Span)
	for _, e := range s.reader.LogtypeDict().ContainsWildcardMatch(m) {
		spans, err := s.reader.Spans(e.ID)
		if err != nil {
			return nil, err
		}
		candidates[e.ID] = spans
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	return s.scanSegments(ctx, func(ev archive.Event) (bool, error) {
		spans, ok := candidates[ev.LogtypeID]
		if !ok {
			return false, nil
		}

		return s.matchEvent(p.toks, spans, ev)
	})
}

// matchEvent resolves the candidate event's variables and reruns the pattern
// with every part known, which makes the result exact.
func (s *Searcher) matchEvent(toks []token, spans []message.Span, ev archive.Event) (bool, error) {
	if got, want := len(ev.Vars), message.NumPlaceholders(spans); got != want {
		return false, fmt.Errorf("%w: event has %d variables, logtype has %d placeholders",
			errs.ErrVarCountMismatch, got, want)
	}

	vals := make([]string, len(ev.Vars))
	for i, v := range ev.Vars {
		val, err := s.reader.RenderVar(v)
		if err != nil {
			return false, err
		}
		vals[i] = val
	}

	return matchTarget(toks, resolvedTarget(spans, vals, s.fold)), nil
}

// exactSearch handles wildcard-free patterns without scanning message text:
// the literal is encoded like a message and its logtype and variables are
// compared against each event in encoded form.
func (s *Searcher) exactSearch(ctx context.Context, literal string) ([]Match, error) {
	em := message.Encode([]byte(literal))

	ltID, ok := s.reader.LogtypeDict().ID(em.Logtype)
	if !ok {
		return nil, nil
	}

	// Resolve the expected encoding of every variable up front. A dictionary
	// variable absent from the archive means no event can match.
	want := make([]archive.EncodedVar, len(em.Vars))
	for i, v := range em.Vars {
		want[i] = archive.EncodedVar{Kind: v.Kind, Int: v.Int, Bits: v.Bits}
		if v.Kind == format.VarDictString {
			id, ok := s.reader.VarDict().ID(v.Str)
			if !ok {
				return nil, nil
			}
			want[i].DictID = id
		}
	}

	return s.scanSegments(ctx, func(ev archive.Event) (bool, error) {
		if ev.LogtypeID != ltID || len(ev.Vars) != len(want) {
			return false, nil
		}
		for i, v := range ev.Vars {
			if v != want[i] {
				return false, nil
			}
		}

		return true, nil
	})
}

// scanSegments decodes every segment overlapping the time range, applying the
// event predicate, with up to s.workers segments in flight. Results keep
// storage order. An error from the predicate marks the event corrupt; the
// event is skipped and the error reported after the scan.
func (s *Searcher) scanSegments(ctx context.Context, match func(archive.Event) (bool, error)) ([]Match, error) {
	n := s.reader.SegmentCount()
	results := make([][]Match, n)
	scanErrs := make([]error, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := range n {
		if !s.reader.SegmentIndex(i).Overlaps(s.minTime, s.maxTime) {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			seg, err := s.reader.Segment(i)
			if err != nil {
				scanErrs[i] = err

				return nil
			}

			var evErrs []error
			for ev, err := range seg.Events() {
				if err != nil {
					// The varint stream cannot be resynchronized past a bad
					// event, so the rest of the segment is abandoned.
					evErrs = append(evErrs, err)

					break
				}
				if ev.Timestamp < s.minTime || ev.Timestamp > s.maxTime {
					continue
				}
				ok, err := match(ev)
				if err != nil {
					evErrs = append(evErrs, fmt.Errorf("segment %d: %w", i, err))

					continue
				}
				if !ok {
					continue
				}
				msg, err := s.reader.DecodeMessage(ev)
				if err != nil {
					evErrs = append(evErrs, fmt.Errorf("segment %d: %w", i, err))

					continue
				}
				results[i] = append(results[i], Match{
					Timestamp: ev.Timestamp,
					Message:   msg,
					Segment:   i,
				})
			}
			scanErrs[i] = errors.Join(evErrs...)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Per-segment buffers concatenate back into storage order.
	var out []Match
	for _, r := range results {
		out = append(out, r...)
	}

	return out, errors.Join(scanErrs...)
}
