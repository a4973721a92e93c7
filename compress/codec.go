package compress

import (
	"fmt"

	"github.com/logpackio/logpack/format"
)

// Compressor compresses one archive block (an encoded event stream or a
// serialized dictionary) into its stored form.
//
// Memory management:
//   - Returned slice is newly allocated and owned by the caller
//   - Input slice is not modified
//   - Internal buffers may be reused for efficiency
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a stored block to its original bytes.
//
// The input must have been produced by the matching Compressor. Implementations
// validate the data format and return an error if the block is corrupted or was
// compressed with an incompatible algorithm; archive readers surface that as a
// corrupt-segment condition rather than retrying.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
//
// Archive writers and readers hold a single Codec chosen from the footer's
// compression byte and apply it to every block in the archive.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
