package hpack

import "github.com/bulwark-proxy/bulwark/http/status"

// DecodeInt decodes an integer with the given prefix length (RFC 7541
// section 5.1), returning the value and the number of bytes consumed.
// A truncated or over-long representation is a compression error: integers
// are only ever decoded from a complete header block.
func DecodeInt(b []byte, prefix uint8) (v uint64, n int, err error) {
	if len(b) == 0 {
		return 0, 0, status.ErrCompression
	}

	mask := uint64(1)<<prefix - 1
	v = uint64(b[0]) & mask
	n = 1

	if v < mask {
		return v, n, nil
	}

	var shift uint
	for {
		if n == len(b) {
			return 0, 0, status.ErrCompression
		}

		// continuation bytes carry 7 bits each; more than 63 bits of
		// payload cannot represent a sane protocol quantity
		if shift > 56 {
			return 0, 0, status.ErrCompression
		}

		c := b[n]
		n++
		v += uint64(c&0x7f) << shift
		shift += 7

		if c&0x80 == 0 {
			return v, n, nil
		}
	}
}

// EncodeInt appends the prefixed integer representation of v. The pattern
// bits above the prefix select the field type.
func EncodeInt(dst []byte, v uint64, prefix uint8, pattern byte) []byte {
	mask := uint64(1)<<prefix - 1

	if v < mask {
		return append(dst, pattern|byte(v))
	}

	dst = append(dst, pattern|byte(mask))
	v -= mask

	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}

	return append(dst, byte(v))
}
