// Package codec decodes compressed message bodies once a message has been
// assembled, so content inspection sees the bytes the client actually meant.
package codec

import (
	"bytes"
	"io"

	"github.com/bulwark-proxy/bulwark/http/status"
	"github.com/bulwark-proxy/bulwark/internal/strutil"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Supported reports whether the content coding can be decoded.
func Supported(coding string) bool {
	for _, known := range []string{"identity", "gzip", "x-gzip", "deflate", "zstd"} {
		if strutil.EqualFold(coding, known) {
			return true
		}
	}

	return false
}

// Decode decompresses body according to a single content coding token.
// An unknown coding or corrupt stream yields a bad encoding error.
func Decode(coding string, body []byte) ([]byte, error) {
	switch {
	case strutil.EqualFold(coding, "identity"):
		return body, nil
	case strutil.EqualFold(coding, "gzip"), strutil.EqualFold(coding, "x-gzip"):
		return decodeGzip(body)
	case strutil.EqualFold(coding, "deflate"):
		return decodeDeflate(body)
	case strutil.EqualFold(coding, "zstd"):
		return decodeZstd(body)
	default:
		return nil, status.ErrBadEncoding
	}
}

func decodeGzip(body []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, status.ErrBadEncoding
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, status.ErrBadEncoding
	}

	return out, nil
}

// decodeDeflate accepts both the zlib-wrapped stream HTTP calls "deflate"
// and the raw stream some clients send under the same name.
func decodeDeflate(body []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err == nil {
		defer zr.Close()

		if out, err := io.ReadAll(zr); err == nil {
			return out, nil
		}
	}

	fr := flate.NewReader(bytes.NewReader(body))
	defer fr.Close()

	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, status.ErrBadEncoding
	}

	return out, nil
}

func decodeZstd(body []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, status.ErrBadEncoding
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, status.ErrBadEncoding
	}

	return out, nil
}
