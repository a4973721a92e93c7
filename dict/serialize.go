package dict

import (
	"encoding/binary"
	"fmt"

	"github.com/logpackio/logpack/errs"
)

// Serialized dictionary block: entries in insertion order, each encoded as a
// uvarint byte length followed by the bytes. The entry's ordinal is its ID, so
// no IDs are stored.

// AppendEncoded appends the dictionary's serialized form to dst and returns
// the extended slice. The output feeds the archive's block codec.
func (d *Dictionary) AppendEncoded(dst []byte) []byte {
	for _, value := range d.entries {
		dst = binary.AppendUvarint(dst, uint64(len(value)))
		dst = append(dst, value...)
	}

	return dst
}

// EncodedSize returns the exact byte length AppendEncoded will produce.
func (d *Dictionary) EncodedSize() int {
	size := 0
	for _, value := range d.entries {
		size += uvarintLen(uint64(len(value))) + len(value)
	}

	return size
}

// Load reconstructs a finalized dictionary from its serialized form. count is
// the entry count recorded in the footer's block descriptor; a short or
// overlong payload is reported as corruption.
func Load(data []byte, count int) (*Dictionary, error) {
	d := New()
	d.entries = make([]string, 0, count)

	for len(data) > 0 {
		length, n := binary.Uvarint(data)
		if n <= 0 || uint64(len(data)-n) < length {
			return nil, fmt.Errorf("%w: truncated dictionary entry %d", errs.ErrDecode, len(d.entries))
		}
		data = data[n:]
		d.entries = append(d.entries, string(data[:length]))
		data = data[length:]
	}

	if len(d.entries) != count {
		return nil, fmt.Errorf("%w: dictionary has %d entries, footer declares %d",
			errs.ErrDecode, len(d.entries), count)
	}

	d.rebuildIndex()
	d.Finalize()

	return d, nil
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}

	return n
}
