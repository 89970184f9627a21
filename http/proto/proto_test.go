package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromBytes(t *testing.T) {
	tests := []struct {
		raw  string
		want Protocol
	}{
		{"HTTP/1.0", HTTP10},
		{"HTTP/1.1", HTTP11},
		{"HTTP/2.0", HTTP2},
		{"HTTP/1.2", Unknown},
		{"HTTP/9.9", Unknown},
		{"HTTP/1.", Unknown},
		{"HTTP/1.1 ", Unknown},
		{"HTPT/1.1", Unknown},
		{"HTTP/1!1", Unknown},
		{"HTTP/1x1", Unknown},
		{"HTTP/1\x001", Unknown},
		{"HTTP/a.1", Unknown},
		{"", Unknown},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, FromBytes([]byte(tc.raw)), "%q", tc.raw)
	}
}

func TestString(t *testing.T) {
	require.Equal(t, "HTTP/1.1", HTTP11.String())
	require.Equal(t, "", Unknown.String())
}
