package http1

import (
	"testing"

	"github.com/bulwark-proxy/bulwark/config"
	"github.com/bulwark-proxy/bulwark/http"
	"github.com/bulwark-proxy/bulwark/http/proto"
	"github.com/bulwark-proxy/bulwark/http/status"
	"github.com/stretchr/testify/require"
)

func completedRequest(t *testing.T, raw string) *http.Request {
	t.Helper()

	request, p := newRequestParser()
	done, _, err := p.Parse([]byte(raw))
	require.NoError(t, err)
	require.True(t, done)

	return request
}

func newResponseParser(t *testing.T, request string) (*http.Response, *ResponseParser) {
	t.Helper()

	cfg := config.Default()
	response := http.NewResponse(cfg, completedRequest(t, request))

	return response, NewResponseParser(cfg, response)
}

func respBlocked(t *testing.T, raw string) error {
	t.Helper()

	_, p := newResponseParser(t, "GET / HTTP/1.1\r\n\r\n")
	done, _, err := p.Parse([]byte(raw))
	require.False(t, done)
	require.Error(t, err)

	return err
}

func TestParseSimpleResponse(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nContent-Length: 5\r\n\r\nhello"

	for _, size := range chunkSizes {
		response, p := newResponseParser(t, "GET / HTTP/1.1\r\n\r\n")

		for i := 0; i < len(raw); i += size {
			end := min(i+size, len(raw))
			done, extra, err := p.Parse([]byte(raw[i:end]))
			require.NoError(t, err)

			if end == len(raw) {
				require.True(t, done)
				require.Empty(t, extra)
			} else {
				require.False(t, done)
			}
		}

		require.Equal(t, proto.HTTP11, response.Protocol)
		require.Equal(t, status.OK, response.Status)
		require.Equal(t, "OK", response.Reason)
		require.True(t, response.Body.Equal([]byte("hello")))
		require.True(t, response.Flags.Has(http.Complete))
	}
}

func TestResponseWithoutPairedRequest(t *testing.T) {
	cfg := config.Default()

	t.Run("nil request", func(t *testing.T) {
		response := http.NewResponse(cfg, nil)
		p := NewResponseParser(cfg, response)

		_, _, err := p.Parse([]byte("HTTP/1.1 200 OK\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrNoPairedRequest)
	})

	t.Run("incomplete request", func(t *testing.T) {
		request := http.NewRequest(cfg)
		rp := NewParser(cfg, request)
		done, _, err := rp.Parse([]byte("GET / HT"))
		require.NoError(t, err)
		require.False(t, done)

		response := http.NewResponse(cfg, request)
		p := NewResponseParser(cfg, response)

		_, _, err = p.Parse([]byte("HTTP/1.1 200 OK\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrNoPairedRequest)
	})
}

func TestResponseToHEADHasNoBody(t *testing.T) {
	response, p := newResponseParser(t, "HEAD / HTTP/1.1\r\n\r\n")
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 1000\r\n\r\n"

	done, extra, err := p.Parse([]byte(raw))
	require.NoError(t, err)
	require.True(t, done)
	require.Empty(t, extra)
	require.Equal(t, http.BodyNone, response.BodyMode)
	require.Equal(t, uint64(1000), response.ContentLength)
	require.True(t, response.Body.Empty())
}

func TestBodylessStatuses(t *testing.T) {
	for _, raw := range []string{
		"HTTP/1.1 204 No Content\r\n\r\n",
		"HTTP/1.1 304 Not Modified\r\n\r\n",
		"HTTP/1.1 100 Continue\r\n\r\n",
	} {
		response, p := newResponseParser(t, "GET / HTTP/1.1\r\n\r\n")
		done, _, err := p.Parse([]byte(raw))
		require.NoError(t, err, raw)
		require.True(t, done, raw)
		require.Equal(t, http.BodyNone, response.BodyMode, raw)
	}
}

func TestBodyUntilClose(t *testing.T) {
	response, p := newResponseParser(t, "GET / HTTP/1.1\r\n\r\n")

	done, _, err := p.Parse([]byte("HTTP/1.1 200 OK\r\n\r\npartial "))
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, http.BodyUntilClose, response.BodyMode)

	done, _, err = p.Parse([]byte("content"))
	require.NoError(t, err)
	require.False(t, done)

	// connection closed by the peer
	done, extra, err := p.Parse(nil)
	require.NoError(t, err)
	require.True(t, done)
	require.Empty(t, extra)
	require.True(t, response.Body.Equal([]byte("partial content")))
}

func TestEOFMidMessage(t *testing.T) {
	_, p := newResponseParser(t, "GET / HTTP/1.1\r\n\r\n")

	done, _, err := p.Parse([]byte("HTTP/1.1 200 OK\r\nContent-Length: 100\r\n\r\nshort"))
	require.NoError(t, err)
	require.False(t, done)

	_, _, err = p.Parse(nil)
	require.Error(t, err)
}

func TestChunkedResponse(t *testing.T) {
	response, p := newResponseParser(t, "GET / HTTP/1.1\r\n\r\n")
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"

	done, _, err := p.Parse([]byte(raw))
	require.NoError(t, err)
	require.True(t, done)
	require.True(t, response.Body.Equal([]byte("Wikipedia")))
}

func TestStatusLineBlocks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"two-digit status", "HTTP/1.1 99 Low\r\n\r\n"},
		{"four-digit status", "HTTP/1.1 2000 High\r\n\r\n"},
		{"non-numeric status", "HTTP/1.1 2x0 Odd\r\n\r\n"},
		{"status below 100", "HTTP/1.1 099 Zero\r\n\r\n"},
		{"control byte in reason", "HTTP/1.1 200 O\x01K\r\n\r\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, respBlocked(t, tc.raw), status.ErrBadStartLine)
		})
	}
}

func TestUnsupportedResponseProtocol(t *testing.T) {
	for _, raw := range []string{
		"HTTP/1.2 200 OK\r\n\r\n",
		"HTTP/1!1 200 OK\r\n\r\n",
	} {
		require.ErrorIs(t, respBlocked(t, raw), status.ErrUnsupportedProtocol)
	}
}

func TestMissingReason(t *testing.T) {
	t.Run("no reason at all", func(t *testing.T) {
		response, p := newResponseParser(t, "GET / HTTP/1.1\r\n\r\n")
		done, _, err := p.Parse([]byte("HTTP/1.1 204\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, status.NoContent, response.Status)
		require.Empty(t, response.Reason)
	})

	t.Run("empty reason after space", func(t *testing.T) {
		response, p := newResponseParser(t, "GET / HTTP/1.1\r\n\r\n")
		done, _, err := p.Parse([]byte("HTTP/1.1 204 \r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Empty(t, response.Reason)
	})
}

func TestResponseETagValidated(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		response, p := newResponseParser(t, "GET / HTTP/1.1\r\n\r\n")
		raw := "HTTP/1.1 200 OK\r\nETag: W/\"v1\"\r\nContent-Length: 0\r\n\r\n"
		done, _, err := p.Parse([]byte(raw))
		require.NoError(t, err)
		require.True(t, done)

		etag, found := response.FieldValue("etag")
		require.True(t, found)
		require.True(t, etag.EqualString("W/\"v1\""))
	})

	t.Run("unclosed quote", func(t *testing.T) {
		err := respBlocked(t, "HTTP/1.1 200 OK\r\nETag: \"v1\r\n\r\n")
		require.ErrorIs(t, err, status.ErrBadETag)
	})

	t.Run("wildcard is not a response tag", func(t *testing.T) {
		err := respBlocked(t, "HTTP/1.1 200 OK\r\nETag: *\r\n\r\n")
		require.ErrorIs(t, err, status.ErrBadETag)
	})
}

func TestResponseTrailers(t *testing.T) {
	response, p := newResponseParser(t, "GET / HTTP/1.1\r\n\r\n")
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"3\r\nabc\r\n0\r\nExpires: never\r\n\r\n"

	done, _, err := p.Parse([]byte(raw))
	require.NoError(t, err)
	require.True(t, done)
	require.Len(t, response.Trailers, 1)
	require.True(t, response.Trailers[0].Name.EqualFold("expires"))
}

func TestResponseFramingBlocks(t *testing.T) {
	t.Run("chunked with content-length", func(t *testing.T) {
		raw := "HTTP/1.1 200 OK\r\nContent-Length: 3\r\nTransfer-Encoding: chunked\r\n\r\n"
		require.ErrorIs(t, respBlocked(t, raw), status.ErrBadEncoding)
	})

	t.Run("coding in HTTP/1.0", func(t *testing.T) {
		raw := "HTTP/1.0 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n"
		require.ErrorIs(t, respBlocked(t, raw), status.ErrBadEncoding)
	})
}
