// Package section defines the fixed-size binary structures of an archive:
// the footer at EOF, the dictionary block descriptors embedded in it, and the
// segment index entries.
//
// All multi-byte fields use the archive's endian engine. The footer's magic,
// version and endian bytes are position-independent single bytes so a reader
// can decode them before choosing an engine. Layouts are compatibility
// contracts; see the format package for the size constants.
package section
