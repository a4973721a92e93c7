package archive

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// OpenFile memory-maps an archive file and returns a Reader over the mapping.
//
// The mapping is read-only; Close unmaps it. Memory-mapping keeps cold
// segments out of resident memory until a query actually touches them, which
// matters when a search fans out over many archives.
func OpenFile(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("map archive: %w", err)
	}

	r, err := NewReader(m)
	if err != nil {
		_ = m.Unmap()

		return nil, err
	}
	r.closeFn = m.Unmap

	return r, nil
}
