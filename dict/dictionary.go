// Package dict implements the deduplicating append-only string tables shared
// by logtypes and dictionary variables.
//
// IDs are assigned monotonically on first insertion and never reused. Lookup
// by ID is a slice index; lookup by string goes through an xxHash64 index with
// explicit collision chains, so entry strings are stored exactly once.
//
// A dictionary is written by a single goroutine during compression, then
// finalized. A finalized dictionary is immutable and safe for lock-free
// concurrent reads, which is how the query path shares it across workers.
package dict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/logpackio/logpack/errs"
	"github.com/logpackio/logpack/internal/hash"
)

// Entry is one (ID, string) pair returned by wildcard scans.
type Entry struct {
	ID    uint32
	Value string
}

// Matcher is the predicate a compiled wildcard pattern exposes to the
// dictionary scan. LiteralPrefix narrows the scan to a sorted range before
// Match runs; an empty prefix degrades to a full scan.
type Matcher interface {
	// LiteralPrefix returns a prefix every matching entry must start with.
	// It may be empty.
	LiteralPrefix() string
	// Match reports whether the entry satisfies the pattern.
	Match(value string) bool
}

// Dictionary is a deduplicating append-only string table.
//
// Not safe for concurrent mutation: Intern calls must be serialized by the
// owning pipeline (single-writer discipline). After Finalize the dictionary
// is read-only and safe to share.
type Dictionary struct {
	entries []string
	// byHash maps xxHash64 of an entry to its candidate IDs. Chains handle
	// hash collisions; the entry string is the source of truth.
	byHash map[uint64][]uint32
	// sorted holds all IDs ordered by entry string, built at finalize time
	// to support prefix narrowing of wildcard scans.
	sorted    []uint32
	finalized bool
}

// New creates an empty dictionary ready for interning.
func New() *Dictionary {
	return &Dictionary{
		byHash: make(map[uint64][]uint32),
	}
}

// Intern returns the ID for value, inserting it with the next unused ID if it
// is not present. Returns ErrDictFinalized after Finalize.
func (d *Dictionary) Intern(value string) (uint32, error) {
	if d.finalized {
		return 0, fmt.Errorf("%w: cannot intern %q", errs.ErrDictFinalized, value)
	}

	h := hash.ID(value)
	for _, id := range d.byHash[h] {
		if d.entries[id] == value {
			return id, nil
		}
	}

	id := uint32(len(d.entries)) //nolint:gosec
	d.entries = append(d.entries, value)
	d.byHash[h] = append(d.byHash[h], id)

	return id, nil
}

// Lookup returns the string for id. It fails with ErrEntryNotFound only when
// the ID was never assigned, which on the read path indicates archive
// corruption.
func (d *Dictionary) Lookup(id uint32) (string, error) {
	if int(id) >= len(d.entries) {
		return "", fmt.Errorf("%w: id %d (dictionary has %d entries)", errs.ErrEntryNotFound, id, len(d.entries))
	}

	return d.entries[id], nil
}

// ID returns the ID for value without interning it.
func (d *Dictionary) ID(value string) (uint32, bool) {
	for _, id := range d.byHash[hash.ID(value)] {
		if d.entries[id] == value {
			return id, true
		}
	}

	return 0, false
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Finalized reports whether the dictionary has been made read-only.
func (d *Dictionary) Finalized() bool {
	return d.finalized
}

// Finalize makes the dictionary read-only and builds the sorted index used by
// ContainsWildcardMatch. Idempotent.
func (d *Dictionary) Finalize() {
	if d.finalized {
		return
	}
	d.finalized = true

	d.sorted = make([]uint32, len(d.entries))
	for i := range d.sorted {
		d.sorted[i] = uint32(i) //nolint:gosec
	}
	sort.Slice(d.sorted, func(i, j int) bool {
		return d.entries[d.sorted[i]] < d.entries[d.sorted[j]]
	})
}

// rebuildIndex recomputes the hash index from the entry slice. Used when a
// dictionary is loaded from its serialized form.
func (d *Dictionary) rebuildIndex() {
	d.byHash = make(map[uint64][]uint32, len(d.entries))
	for id, value := range d.entries {
		h := hash.ID(value)
		d.byHash[h] = append(d.byHash[h], uint32(id)) //nolint:gosec
	}
}

// ContainsWildcardMatch returns every entry the matcher accepts, in ID order.
//
// When the matcher provides a non-empty literal prefix the scan is narrowed
// to the matching range of the sorted index (O(log n) to locate, then linear
// in range size). With an empty prefix this degrades to a full linear scan of
// all entries; that is correctness-preserving but pays O(n) per query, which
// is acceptable because n is the distinct-entry count, not the event count.
//
// Must only be called after Finalize.
func (d *Dictionary) ContainsWildcardMatch(m Matcher) []Entry {
	if !d.finalized {
		panic("dict: ContainsWildcardMatch before Finalize")
	}

	var out []Entry
	prefix := m.LiteralPrefix()

	if prefix == "" {
		for id, value := range d.entries {
			if m.Match(value) {
				out = append(out, Entry{ID: uint32(id), Value: value}) //nolint:gosec
			}
		}

		return out
	}

	start := sort.Search(len(d.sorted), func(i int) bool {
		return d.entries[d.sorted[i]] >= prefix
	})
	for i := start; i < len(d.sorted); i++ {
		value := d.entries[d.sorted[i]]
		if !strings.HasPrefix(value, prefix) {
			break
		}
		if m.Match(value) {
			out = append(out, Entry{ID: d.sorted[i], Value: value})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}
