// Package httptest provides helpers for tests: binary HTTP/2 traffic
// construction and JSON dumps of parsed messages.
package httptest

import (
	"github.com/bulwark-proxy/bulwark/http"
	"github.com/bulwark-proxy/bulwark/internal/protocol/http2/frame"
	"github.com/bulwark-proxy/bulwark/internal/protocol/http2/hpack"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// messageView is the JSON shape of a dumped message.
type messageView struct {
	Fields        []fieldView `json:"fields"`
	Trailers      []fieldView `json:"trailers,omitempty"`
	ContentLength uint64      `json:"contentLength,omitempty"`
	Body          string      `json:"body,omitempty"`
}

type fieldView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Dump renders a parsed message as JSON with every segmented string
// materialized, for readable assertions and debugging output.
func Dump(m *http.Message) string {
	view := messageView{
		ContentLength: m.ContentLength,
		Body:          m.Body.String(),
	}

	for _, f := range m.Fields {
		view.Fields = append(view.Fields, fieldView{f.Name.String(), f.Value.String()})
	}

	for _, f := range m.Trailers {
		view.Trailers = append(view.Trailers, fieldView{f.Name.String(), f.Value.String()})
	}

	out, err := json.MarshalToString(view)
	if err != nil {
		panic(err)
	}

	return out
}

// Conn accumulates raw HTTP/2 connection bytes frame by frame.
type Conn struct {
	buf []byte
}

func (c *Conn) Preface() *Conn {
	c.buf = append(c.buf, frame.ClientPreface...)
	return c
}

func (c *Conn) Frame(t frame.Type, flags frame.Flags, streamID uint32, payload []byte) *Conn {
	c.buf = frame.AppendHeader(c.buf, frame.Header{
		Length:   uint32(len(payload)),
		Type:     t,
		Flags:    flags,
		StreamID: streamID,
	})
	c.buf = append(c.buf, payload...)

	return c
}

func (c *Conn) Headers(streamID uint32, flags frame.Flags, block []byte) *Conn {
	return c.Frame(frame.Headers, flags, streamID, block)
}

func (c *Conn) Data(streamID uint32, flags frame.Flags, payload []byte) *Conn {
	return c.Frame(frame.Data, flags, streamID, payload)
}

func (c *Conn) Settings(pairs ...uint32) *Conn {
	if len(pairs)%2 != 0 {
		panic("settings come in id/value pairs")
	}

	var payload []byte
	for i := 0; i < len(pairs); i += 2 {
		payload = append(payload,
			byte(pairs[i]>>8), byte(pairs[i]),
			byte(pairs[i+1]>>24), byte(pairs[i+1]>>16), byte(pairs[i+1]>>8), byte(pairs[i+1]),
		)
	}

	return c.Frame(frame.Settings, 0, 0, payload)
}

func (c *Conn) Bytes() []byte { return c.buf }

// RequestBlock encodes a header block for a request: the standard pseudo
// fields followed by literal name/value pairs.
func RequestBlock(method, path string, fields ...string) []byte {
	if len(fields)%2 != 0 {
		panic("fields come in name/value pairs")
	}

	block := hpack.AppendLiteralField(nil, ":method", method)
	block = hpack.AppendLiteralField(block, ":scheme", "https")
	block = hpack.AppendLiteralField(block, ":path", path)

	for i := 0; i < len(fields); i += 2 {
		block = hpack.AppendLiteralField(block, fields[i], fields[i+1])
	}

	return block
}
