package method

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, m := range []Method{GET, HEAD, POST, PUT, DELETE, CONNECT, OPTIONS, TRACE, PATCH} {
		require.Equal(t, m, Parse(m.String()))
	}

	for _, str := range []string{"", "get", "GETT", "PROPFIND", "G E", "쿼리"} {
		require.Equal(t, Unknown, Parse(str))
	}
}

func TestBodyless(t *testing.T) {
	for _, m := range []Method{GET, HEAD, DELETE, TRACE} {
		require.True(t, m.Bodyless(), m.String())
	}

	for _, m := range []Method{POST, PUT, PATCH, OPTIONS, CONNECT} {
		require.False(t, m.Bodyless(), m.String())
	}
}
