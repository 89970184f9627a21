package codec

import (
	"bytes"
	"testing"

	"github.com/bulwark-proxy/bulwark/http/status"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

const payload = "The quick brown fox jumps over the lazy dog"

func TestDecodeGzip(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out, err := Decode("gzip", buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, payload, string(out))

	out, err = Decode("x-gzip", buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, payload, string(out))
}

func TestDecodeDeflate(t *testing.T) {
	t.Run("zlib wrapped", func(t *testing.T) {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		_, err := w.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		out, err := Decode("deflate", buf.Bytes())
		require.NoError(t, err)
		require.Equal(t, payload, string(out))
	})

	t.Run("raw stream", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := flate.NewWriter(&buf, flate.DefaultCompression)
		require.NoError(t, err)
		_, err = w.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		out, err := Decode("deflate", buf.Bytes())
		require.NoError(t, err)
		require.Equal(t, payload, string(out))
	})
}

func TestDecodeZstd(t *testing.T) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out, err := Decode("zstd", buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, payload, string(out))
}

func TestDecodeIdentity(t *testing.T) {
	out, err := Decode("identity", []byte(payload))
	require.NoError(t, err)
	require.Equal(t, payload, string(out))
}

func TestDecodeErrors(t *testing.T) {
	t.Run("unknown coding", func(t *testing.T) {
		_, err := Decode("br", []byte(payload))
		require.ErrorIs(t, err, status.ErrBadEncoding)
	})

	t.Run("corrupt gzip", func(t *testing.T) {
		_, err := Decode("gzip", []byte("not gzip at all"))
		require.ErrorIs(t, err, status.ErrBadEncoding)
	})
}

func TestSupported(t *testing.T) {
	require.True(t, Supported("gzip"))
	require.True(t, Supported("GZIP"))
	require.True(t, Supported("identity"))
	require.False(t, Supported("br"))
	require.False(t, Supported(""))
}
