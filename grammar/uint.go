package grammar

import (
	"math"

	"github.com/bulwark-proxy/bulwark/http/status"
	ascii "github.com/scott-ainsworth/go-ascii"
)

// Width is the numeric width a value is validated against. Boundaries are
// half-open: a Bit32 value must lie in [0, 2^32).
type Width uint8

const (
	Bit16 Width = iota
	Bit32
	Bit63
	Bit64
)

var widthMax = [...]uint64{
	Bit16: 1<<16 - 1,
	Bit32: 1<<32 - 1,
	Bit63: 1<<63 - 1,
	Bit64: math.MaxUint64,
}

// ParseUint parses b as an unsigned decimal integer under the strict grammar:
// digits only, no sign, no fraction, no surrounding whitespace, at least one
// digit. Values exceeding the width are rejected exactly at the boundary
// rather than saturated.
func ParseUint(b []byte, w Width) (uint64, error) {
	if len(b) == 0 {
		return 0, status.ErrMalformedNumber
	}

	limit := widthMax[w]
	var v uint64

	for _, c := range b {
		if !ascii.IsDigit(c) {
			return 0, status.ErrMalformedNumber
		}

		d := uint64(c - '0')
		if v > (limit-d)/10 {
			return 0, status.ErrNumberOutOfRange
		}

		v = v*10 + d
	}

	return v, nil
}
