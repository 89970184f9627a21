package hexconv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHalfbyte(t *testing.T) {
	for c := byte('0'); c <= '9'; c++ {
		require.Equal(t, c-'0', Halfbyte[c])
	}

	for c := byte('a'); c <= 'f'; c++ {
		require.Equal(t, c-'a'+10, Halfbyte[c])
		require.Equal(t, Halfbyte[c], Halfbyte[c-0x20])
	}

	for _, c := range []byte{0, ' ', 'g', 'G', 'z', ':', '@', '`', 0xff} {
		require.Equal(t, byte(Invalid), Halfbyte[c])
	}
}
