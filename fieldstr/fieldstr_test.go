package fieldstr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(s *String) (values []string) {
	for v := range s.Values() {
		values = append(values, v.String())
	}

	return values
}

func TestString(t *testing.T) {
	t.Run("append and length", func(t *testing.T) {
		var s String
		s.Append([]byte("Content"), Name)
		s.Append([]byte("-Length"), Name)
		s.Append([]byte(": "), Separator)
		s.Append([]byte("42"), Value)
		s.Append(nil, Value)

		require.Equal(t, len("Content-Length: 42"), s.Len())
		require.Equal(t, 4, s.ChunkCount())
		require.Equal(t, "Content-Length: 42", s.String())
	})

	t.Run("equal against flat bytes", func(t *testing.T) {
		var s String
		s.Append([]byte("Hel"), Value)
		s.Append([]byte("lo"), Value)

		require.True(t, s.Equal([]byte("Hello")))
		require.True(t, s.EqualString("Hello"))
		require.False(t, s.Equal([]byte("Hell")))
		require.False(t, s.Equal([]byte("Hellow")))
		require.False(t, s.Equal([]byte("hello")))
		require.True(t, s.EqualFold("hELLO"))
	})

	t.Run("compare chunkwise", func(t *testing.T) {
		var a, b String
		a.Append([]byte("ab"), Value)
		a.Append([]byte("cdef"), Value)
		b.Append([]byte("abcd"), Value)
		b.Append([]byte("e"), Value)
		b.Append([]byte("f"), Value)

		require.Zero(t, a.Compare(&b))
		require.Zero(t, b.Compare(&a))

		var c String
		c.Append([]byte("abcdeg"), Value)
		require.Equal(t, -1, a.Compare(&c))
		require.Equal(t, 1, c.Compare(&a))

		var prefix String
		prefix.Append([]byte("abc"), Value)
		require.Equal(t, 1, a.Compare(&prefix))
		require.Equal(t, -1, prefix.Compare(&a))
	})

	t.Run("empty strings", func(t *testing.T) {
		var a, b String
		require.True(t, a.Empty())
		require.Zero(t, a.Compare(&b))
		require.True(t, a.Equal(nil))
		require.Nil(t, collect(&a))
	})

	t.Run("value iteration", func(t *testing.T) {
		var s String
		s.AppendList([]byte("a, b,c"))

		require.Equal(t, []string{"a", "b", "c"}, collect(&s))
		require.Equal(t, "a, b,c", s.String())
	})

	t.Run("value iteration over fragmented items", func(t *testing.T) {
		// an item assembled from two deliveries stays a single logical value
		var s String
		s.Append([]byte("gz"), Value)
		s.Append([]byte("ip"), Value)
		s.Append([]byte(", "), Separator)
		s.Append([]byte("br"), Value)

		require.Equal(t, []string{"gzip", "br"}, collect(&s))
	})

	t.Run("list with surrounding whitespace", func(t *testing.T) {
		var s String
		s.AppendList([]byte("  deflate\t,   gzip  "))

		require.Equal(t, []string{"deflate", "gzip"}, collect(&s))
		require.Equal(t, "  deflate\t,   gzip  ", s.String())
	})

	t.Run("single plain value", func(t *testing.T) {
		var s String
		s.AppendList([]byte("keep-alive"))

		require.Equal(t, []string{"keep-alive"}, collect(&s))
	})

	t.Run("reset", func(t *testing.T) {
		var s String
		s.Append([]byte("data"), Value)
		s.Reset()
		require.True(t, s.Empty())
		require.Zero(t, s.ChunkCount())
	})
}
