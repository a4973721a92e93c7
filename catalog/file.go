package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/logpackio/logpack/errs"
)

// FileCatalog persists records to a single JSON file, rewritten atomically on
// every Register via a rename. Suited to one writer process; concurrent calls
// within the process are serialized.
type FileCatalog struct {
	mu      sync.Mutex
	path    string
	records []ArchiveMeta
}

var _ Catalog = (*FileCatalog)(nil)

// OpenFileCatalog loads the catalog at path, creating an empty one if the
// file does not exist yet.
func OpenFileCatalog(path string) (*FileCatalog, error) {
	c := &FileCatalog{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	if err := json.Unmarshal(raw, &c.records); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	return c, nil
}

// Register adds one record and rewrites the file.
func (c *FileCatalog) Register(meta ArchiveMeta) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range c.records {
		if m.ID == meta.ID {
			return fmt.Errorf("archive %s already registered", meta.ID)
		}
	}

	c.records = append(c.records, meta)
	if err := c.save(); err != nil {
		c.records = c.records[:len(c.records)-1]

		return err
	}

	return nil
}

func (c *FileCatalog) save() error {
	raw, err := json.MarshalIndent(c.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}

	return nil
}

// ForRange returns the records overlapping [minTime, maxTime].
func (c *FileCatalog) ForRange(minTime, maxTime int64) ([]ArchiveMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

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
func (c *FileCatalog) All() ([]ArchiveMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ArchiveMeta, len(c.records))
	copy(out, c.records)
	sortMetas(out)

	return out, nil
}

// Get returns one record by ID.
func (c *FileCatalog) Get(id uuid.UUID) (ArchiveMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range c.records {
		if m.ID == id {
			return m, nil
		}
	}

	return ArchiveMeta{}, fmt.Errorf("%w: archive %s", errs.ErrEntryNotFound, id)
}

// ResolvePath joins a record's path against the catalog file's directory when
// the record holds a relative path, so a catalog and its archives can move
// together.
func (c *FileCatalog) ResolvePath(meta ArchiveMeta) string {
	if filepath.IsAbs(meta.Path) {
		return meta.Path
	}

	return filepath.Join(filepath.Dir(c.path), meta.Path)
}
