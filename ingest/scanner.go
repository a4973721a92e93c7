// Package ingest splits raw log streams into timestamped messages ready for
// archiving. Each input line becomes one message; a leading timestamp in a
// recognized format is lifted out as the event timestamp rather than kept in
// the message text.
package ingest

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"time"

	"github.com/logpackio/logpack/internal/options"
)

// maxLineSize bounds a single log line. Lines beyond this fail the scan.
const maxLineSize = 1 << 20

// Entry is one scanned log event.
type Entry struct {
	// Timestamp is the event time in Unix milliseconds.
	Timestamp int64
	// Message is the line with any recognized leading timestamp removed.
	// The slice is only valid until the next Scan call.
	Message []byte
}

// Scanner reads a log stream line by line.
//
// Timestamp handling: a line starting with an RFC 3339 timestamp or a bare
// epoch value (seconds or milliseconds) uses that as the event time. Other
// lines inherit the previous event's timestamp, so continuation lines of a
// multi-line entry sort with their head line; before any timestamped line the
// clock supplies the time.
type Scanner struct {
	sc    *bufio.Scanner
	now   func() time.Time
	entry Entry
	last  int64
	seen  bool
}

// ScannerOption configures a Scanner.
type ScannerOption = options.Option[*Scanner]

// WithClock replaces the wall clock used when a stream has no parseable
// timestamps yet.
func WithClock(now func() time.Time) ScannerOption {
	return options.NoError(func(s *Scanner) {
		s.now = now
	})
}

// NewScanner creates a Scanner over src.
func NewScanner(src io.Reader, opts ...ScannerOption) (*Scanner, error) {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	s := &Scanner{sc: sc, now: time.Now}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	return s, nil
}

// Scan advances to the next entry. It returns false at end of input or on
// read error; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	if !s.sc.Scan() {
		return false
	}

	line := s.sc.Bytes()
	ts, rest, ok := extractTimestamp(line)
	if !ok {
		rest = line
		if s.seen {
			ts = s.last
		} else {
			ts = s.now().UnixMilli()
		}
	}

	s.last = ts
	s.seen = true
	s.entry = Entry{Timestamp: ts, Message: rest}

	return true
}

// Entry returns the entry produced by the last successful Scan.
func (s *Scanner) Entry() Entry { return s.entry }

// Err returns the first error hit by the underlying reader.
func (s *Scanner) Err() error { return s.sc.Err() }

// extractTimestamp parses a leading timestamp token and returns the remainder
// of the line with one separating space consumed.
func extractTimestamp(line []byte) (int64, []byte, bool) {
	field := line
	if i := bytes.IndexByte(line, ' '); i >= 0 {
		field = line[:i]
	}
	if len(field) == 0 {
		return 0, nil, false
	}

	ts, ok := parseTimestamp(string(field))
	if !ok {
		return 0, nil, false
	}

	rest := line[len(field):]
	if len(rest) > 0 && rest[0] == ' ' {
		rest = rest[1:]
	}

	return ts, rest, true
}

func parseTimestamp(field string) (int64, bool) {
	// RFC 3339 contains 'T' early; cheap reject before time.Parse.
	if len(field) >= 20 && field[10] == 'T' {
		if t, err := time.Parse(time.RFC3339Nano, field); err == nil {
			return t.UnixMilli(), true
		}

		return 0, false
	}

	// Bare epoch: 10 digits are seconds, 13 digits are milliseconds. Shorter
	// or longer digit runs are message content, not timestamps.
	if len(field) != 10 && len(field) != 13 {
		return 0, false
	}
	v, err := strconv.ParseUint(field, 10, 63)
	if err != nil {
		return 0, false
	}
	if len(field) == 10 {
		return int64(v) * 1000, true //nolint:gosec
	}

	return int64(v), true //nolint:gosec
}
