// Package archive implements writing and reading of logpack archives.
//
// A Writer consumes (timestamp, message) pairs, encodes each message through
// the message package, interns logtypes and dictionary variables, and buffers
// encoded events into segments. When a segment reaches the target size its
// event stream is compressed and appended to the output; Finish writes the
// dictionaries, the segment index and the footer.
//
// A Reader is the exact inverse. It parses the footer, loads both
// dictionaries fully resident, and streams events segment by segment on
// demand. Decoding an event reproduces the original message byte-for-byte.
// Readers are immutable after construction and safe for concurrent use, which
// lets parallel queries share one Reader without locking.
//
// An archive is append-only during compression and read-only afterwards; a
// Writer cannot be reused after Finish and a Reader never mutates its input.
package archive
