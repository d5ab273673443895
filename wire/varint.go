// Package wire implements the on-the-wire packet format: packet and
// fragment headers, and the unsigned LEB128-like varint used for fragment
// payload lengths.
package wire

import (
	"errors"
	"io"
)

// ErrVarintTooLong is returned by DecodeVarint when 9 bytes are read and the
// ninth still has its continuation bit set (a corrupt or adversarial stream).
var ErrVarintTooLong = errors.New("wire: varint exceeds 9 bytes")

// AppendVarint encodes v as an unsigned LEB128-like varint (little-endian
// groups of 7 bits, MSB as the continuation flag) and appends it to dst.
func AppendVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// DecodeVarint reads a varint from the front of b, returning the value and
// the remaining bytes.
func DecodeVarint(b []byte) (uint64, []byte, error) {
	var v uint64
	for i := 0; i < 9; i++ {
		if i >= len(b) {
			return 0, nil, io.ErrUnexpectedEOF
		}
		c := b[i]
		v |= uint64(c&0x7f) << (7 * i)
		if c&0x80 == 0 {
			return v, b[i+1:], nil
		}
	}
	return 0, nil, ErrVarintTooLong
}
