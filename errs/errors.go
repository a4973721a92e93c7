// Package errs defines the sentinel errors shared across logpack packages.
//
// Callers wrap these with fmt.Errorf("%w: ...") to add context while keeping
// errors.Is checks working across package boundaries.
package errs

import "errors"

// Archive structure errors.
var (
	// ErrInvalidMagic indicates the footer magic number does not identify a
	// logpack archive.
	ErrInvalidMagic = errors.New("invalid archive magic")
	// ErrUnsupportedVersion indicates the archive was written with a format
	// version this build does not understand.
	ErrUnsupportedVersion = errors.New("unsupported archive version")
	// ErrInvalidFooter indicates the footer is truncated, has a bad checksum,
	// or carries inconsistent offsets.
	ErrInvalidFooter = errors.New("invalid archive footer")
	// ErrInvalidCompression indicates an unknown compression type byte.
	ErrInvalidCompression = errors.New("invalid compression type")
	// ErrInvalidEndian indicates an unknown byte-order marker.
	ErrInvalidEndian = errors.New("invalid endian marker")
)

// Dictionary errors.
var (
	// ErrEntryNotFound indicates a dictionary ID referenced by an event is
	// absent from the dictionary. This is an archive integrity failure, not a
	// transient condition.
	ErrEntryNotFound = errors.New("dictionary entry not found")
	// ErrDictFinalized indicates an Intern call on a finalized dictionary.
	ErrDictFinalized = errors.New("dictionary is finalized")
)

// Decode errors.
var (
	// ErrDecode indicates an event could not be decoded: truncated inline
	// bytes, a corrupt varint, or similar stream damage.
	ErrDecode = errors.New("event decode failed")
	// ErrCorruptLogtype indicates a stored logtype string is malformed, such
	// as a trailing unpaired escape byte.
	ErrCorruptLogtype = errors.New("corrupt logtype")
	// ErrVarCountMismatch indicates the placeholder count of a logtype
	// disagrees with an event's variable list length.
	ErrVarCountMismatch = errors.New("variable count mismatch")
	// ErrCorruptSegment indicates a segment block failed decompression or its
	// declared sizes are inconsistent.
	ErrCorruptSegment = errors.New("corrupt segment")
)

// Writer state errors.
var (
	// ErrWriterFinished indicates an Append after Finish.
	ErrWriterFinished = errors.New("writer already finished")
	// ErrNoEvents indicates Finish was called on a writer that never received
	// an event.
	ErrNoEvents = errors.New("no events written")
)

// Query errors.
var (
	// ErrInvalidPattern indicates malformed wildcard syntax, such as an
	// unterminated escape at end of pattern.
	ErrInvalidPattern = errors.New("invalid wildcard pattern")
)
