// Package catalog tracks the archives a deployment has written: one metadata
// record per archive, keyed by a generated UUID, with the time range and size
// statistics multi-archive search uses to prune.
//
// Two implementations are provided. MemoryCatalog backs tests and embedded
// use; FileCatalog persists the records as a JSON file next to the archives.
package catalog

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/logpackio/logpack/archive"
	"github.com/logpackio/logpack/errs"
)

// ArchiveMeta is one catalog record.
type ArchiveMeta struct {
	ID   uuid.UUID `json:"id"`
	Path string    `json:"path"`

	// MinTime and MaxTime bound the archive's event timestamps in Unix
	// milliseconds.
	MinTime int64 `json:"min_time"`
	MaxTime int64 `json:"max_time"`

	EventCount       uint64 `json:"event_count"`
	SegmentCount     uint32 `json:"segment_count"`
	UncompressedSize uint64 `json:"uncompressed_size"`
	CompressedSize   uint64 `json:"compressed_size"`

	CreatedAt time.Time `json:"created_at"`
}

// Overlaps reports whether the archive may contain events in
// [minTime, maxTime]. An archive with no events never overlaps.
func (m *ArchiveMeta) Overlaps(minTime, maxTime int64) bool {
	if m.EventCount == 0 {
		return false
	}

	return m.MinTime <= maxTime && m.MaxTime >= minTime
}

// NewArchiveMeta builds a record for a freshly written archive from the
// writer's final statistics, assigning a new random ID.
func NewArchiveMeta(path string, stats *archive.Stats) ArchiveMeta {
	return ArchiveMeta{
		ID:               uuid.New(),
		Path:             path,
		MinTime:          stats.MinTime,
		MaxTime:          stats.MaxTime,
		EventCount:       stats.EventCount,
		SegmentCount:     stats.SegmentCount,
		UncompressedSize: stats.UncompressedSize,
		CompressedSize:   stats.CompressedSize,
		CreatedAt:        time.Now().UTC(),
	}
}

// Catalog stores and queries archive metadata records.
type Catalog interface {
	// Register adds one record. Registering an ID twice is an error.
	Register(meta ArchiveMeta) error
	// ForRange returns the records whose time range overlaps
	// [minTime, maxTime], ordered by MinTime then ID.
	ForRange(minTime, maxTime int64) ([]ArchiveMeta, error)
	// All returns every record, ordered by MinTime then ID.
	All() ([]ArchiveMeta, error)
	// Get returns the record with the given ID, or ErrEntryNotFound.
	Get(id uuid.UUID) (ArchiveMeta, error)
}

// MemoryCatalog is an in-process Catalog. Safe for concurrent use.
type MemoryCatalog struct {
	mu      sync.RWMutex
	records map[uuid.UUID]ArchiveMeta
}

var _ Catalog = (*MemoryCatalog)(nil)

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{records: make(map[uuid.UUID]ArchiveMeta)}
}

// Register adds one record.
func (c *MemoryCatalog) Register(meta ArchiveMeta) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[meta.ID]; ok {
		return fmt.Errorf("archive %s already registered", meta.ID)
	}
	c.records[meta.ID] = meta

	return nil
}

// ForRange returns the records overlapping [minTime, maxTime].
func (c *MemoryCatalog) ForRange(minTime, maxTime int64) ([]ArchiveMeta, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []ArchiveMeta
	for _, m := range c.records {
		if m.Overlaps(minTime, maxTime) {
			out = append(out, m)
		}
	}
	sortMetas(out)

	return out, nil
}

// All returns every record.
func (c *MemoryCatalog) All() ([]ArchiveMeta, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ArchiveMeta, 0, len(c.records))
	for _, m := range c.records {
		out = append(out, m)
	}
	sortMetas(out)

	return out, nil
}

// Get returns one record by ID.
func (c *MemoryCatalog) Get(id uuid.UUID) (ArchiveMeta, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.records[id]
	if !ok {
		return ArchiveMeta{}, fmt.Errorf("%w: archive %s", errs.ErrEntryNotFound, id)
	}

	return m, nil
}

func sortMetas(metas []ArchiveMeta) {
	sort.Slice(metas, func(i, j int) bool {
		if metas[i].MinTime != metas[j].MinTime {
			return metas[i].MinTime < metas[j].MinTime
		}

		return metas[i].ID.String() < metas[j].ID.String()
	})
}
