package compress

import "github.com/klauspost/compress/s2"

// S2Compressor compresses segment and dictionary blocks with S2, the Snappy
// successor. It favors throughput over ratio, which suits ingest-heavy
// archives where compression speed bounds the pipeline.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress encodes a block with S2. Empty input yields a nil block, matching
// how the archive writer records empty dictionary sections.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decodes an S2 block.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}
