package wire

import (
	"github.com/pkg/errors"
)

// byteReader is a bounds-checked cursor over an immutable byte buffer. All
// read methods advance the cursor; none of them ever reads past the end of
// the buffer.
type byteReader struct {
	buf    []byte
	cursor int
}

// newByteReader returns a byteReader positioned at the start of buf.
func newByteReader(buf []byte) *byteReader {
	return &byteReader{buf: buf}
}

// remaining returns how many unread bytes are left.
func (r *byteReader) remaining() int {
	return len(r.buf) - r.cursor
}

// readBytes returns the next n bytes as a subslice of the underlying buffer
// and advances the cursor. The result aliases the buffer and must be copied
// if retained.
func (r *byteReader) readBytes(n uint64) ([]byte, error) {
	if n > uint64(r.remaining()) {
		return nil, errors.Wrapf(ErrTruncatedTransaction,
			"need %d bytes at offset %d, have %d", n, r.cursor, r.remaining())
	}
	b := r.buf[r.cursor : r.cursor+int(n)]
	r.cursor += int(n)
	return b, nil
}

// skip advances the cursor n bytes.
func (r *byteReader) skip(n uint64) error {
	_, err := r.readBytes(n)
	return err
}

// readUint32 reads a 4-byte little-endian value.
func (r *byteReader) readUint32() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return littleEndian.Uint32(b), nil
}

// readUint64 reads an 8-byte little-endian value.
func (r *byteReader) readUint64() (uint64, error) {
	b, err := r.readBytes(8)
	if err != nil {
		return 0, err
	}
	return littleEndian.Uint64(b), nil
}

// readVarInt reads a compact variable-length integer. The first byte
// determines the total width: values below 0xfd encode themselves, 0xfd
// prefixes a 2-byte value, 0xfe a 4-byte value and 0xff an 8-byte value, all
// little-endian.
func (r *byteReader) readVarInt() (uint64, error) {
	if r.remaining() < 1 {
		return 0, errors.Wrapf(ErrMalformedVarInt,
			"no discriminant byte at offset %d", r.cursor)
	}
	discriminant := r.buf[r.cursor]
	r.cursor++

	var width int
	switch discriminant {
	case 0xfd:
		width = 2
	case 0xfe:
		width = 4
	case 0xff:
		width = 8
	default:
		return uint64(discriminant), nil
	}

	if width > r.remaining() {
		return 0, errors.Wrapf(ErrMalformedVarInt,
			"discriminant 0x%02x needs %d bytes at offset %d, have %d",
			discriminant, width, r.cursor, r.remaining())
	}
	b := r.buf[r.cursor : r.cursor+width]
	r.cursor += width

	switch width {
	case 2:
		return uint64(littleEndian.Uint16(b)), nil
	case 4:
		return uint64(littleEndian.Uint32(b)), nil
	default:
		return littleEndian.Uint64(b), nil
	}
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a compact variable-length integer.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= 0xffff:
		return 3
	case val <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// AppendVarInt appends the compact variable-length encoding of val to buf and
// returns the extended buffer.
func AppendVarInt(buf []byte, val uint64) []byte {
	switch {
	case val < 0xfd:
		return append(buf, byte(val))
	case val <= 0xffff:
		buf = append(buf, 0xfd, 0, 0)
		littleEndian.PutUint16(buf[len(buf)-2:], uint16(val))
		return buf
	case val <= 0xffffffff:
		buf = append(buf, 0xfe, 0, 0, 0, 0)
		littleEndian.PutUint32(buf[len(buf)-4:], uint32(val))
		return buf
	default:
		buf = append(buf, 0xff, 0, 0, 0, 0, 0, 0, 0, 0)
		littleEndian.PutUint64(buf[len(buf)-8:], val)
		return buf
	}
}
