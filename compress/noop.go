package compress

// NoOpCompressor stores blocks uncompressed. It backs CompressionNone, which
// is useful when the log stream is already compressed upstream, or when
// benchmarking the encoding layer without codec overhead.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a pass-through codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns the input slice unchanged.
//
// Note: The returned slice aliases the input. Callers must not mutate the
// input after handing it to the archive writer.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input slice unchanged.
//
// Note: The returned slice aliases the input, which for mmap-backed readers
// means it points directly into the mapped archive file.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
