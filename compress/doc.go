// Package compress provides the block codecs used for archive segment and
// dictionary blocks.
//
// Compression is applied per block after encoding: segment blocks hold encoded
// event streams, dictionary blocks hold interned strings. Both are highly
// repetitive, so even fast codecs achieve good ratios.
//
// Supported algorithms:
//   - None: no compression (fastest, largest)
//   - Zstd: best compression ratio, moderate speed
//   - S2: balanced compression and speed
//   - LZ4: fastest decompression, moderate compression
//
// The Zstd codec has two implementations selected at build time: a pure-Go
// implementation (klauspost/compress/zstd, default) and a cgo implementation
// (valyala/gozstd) behind a build tag, matching whichever the deployment can
// afford.
//
// All codecs are safe for concurrent use; internal encoder/decoder state is
// pooled per call.
package compress
