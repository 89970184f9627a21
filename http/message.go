// Package http holds the structured representation of a parsed message: the
// object the parsing core assembles and the embedding proxy inspects.
package http

import (
	"github.com/bulwark-proxy/bulwark/config"
	"github.com/bulwark-proxy/bulwark/fieldstr"
	"github.com/bulwark-proxy/bulwark/internal/buffer"
)

// Flag is a named boolean property of a message.
type Flag uint16

const (
	// IsHTTP2 is set on messages assembled from an HTTP/2 stream.
	IsHTTP2 Flag = 1 << iota
	// HeadersParsed is set once the header section is fully decoded.
	HeadersParsed
	// Chunked is set when the body uses chunked transfer framing.
	Chunked
	// ConnectionClose is set when the message asks to drop the connection
	// after completion.
	ConnectionClose
	// StrippedLeadingCR records that one tolerated CR was consumed in front
	// of the start line.
	StrippedLeadingCR
	// StrippedLeadingLF records that one tolerated LF was consumed in front
	// of the start line.
	StrippedLeadingLF
	// Complete is set when the whole message has been parsed.
	Complete
)

// Flags is an enum-backed bitfield of message properties.
type Flags uint16

func (f Flags) Has(flag Flag) bool { return Flags(flag)&f == Flags(flag) }
func (f *Flags) Set(flag Flag)     { *f |= Flags(flag) }
func (f *Flags) Unset(flag Flag)   { *f &^= Flags(flag) }

// BodyMode is the framing of the message body.
type BodyMode uint8

const (
	// BodyNone: the message has no body.
	BodyNone BodyMode = iota
	// BodyContentLength: exactly ContentLength octets follow the headers.
	BodyContentLength
	// BodyChunked: chunked transfer framing.
	BodyChunked
	// BodyUntilClose: the body extends to the end of the connection
	// (responses without explicit framing only).
	BodyUntilClose
)

// Field is a single header field. Name and Value reference message-owned
// storage; Value chunks of list-valued fields are split per item, so
// Value.Values() iterates the logical items.
type Field struct {
	Name  fieldstr.String
	Value fieldstr.String
}

// Message is the common part of requests and responses: the sink all parser
// layers write into.
type Message struct {
	Flags         Flags
	Fields        []Field
	Trailers      []Field
	ContentLength uint64
	BodyMode      BodyMode
	Body          fieldstr.String
	// ConsumedLen accumulates the number of bytes consumed by every feed so
	// far. Callers compare it with what they transmitted to detect trailing
	// pipelined data.
	ConsumedLen int

	headers *buffer.Buffer
	body    *buffer.Buffer
}

func newMessage(cfg *config.Config) Message {
	return Message{
		Fields:  make([]Field, 0, cfg.Headers.Number.Default),
		headers: buffer.New(cfg.Headers.Space.Default, cfg.Headers.Space.Maximal),
		body:    buffer.New(0, int(min(cfg.Body.MaxSize, 1<<62))),
	}
}

// HeaderStorage is the message-owned arena receiving header bytes which must
// outlive the transport buffers they arrived in.
func (m *Message) HeaderStorage() *buffer.Buffer { return m.headers }

// BodyStorage is the arena receiving body bytes.
func (m *Message) BodyStorage() *buffer.Buffer { return m.body }

// Field returns the first header field matching the name case-insensitively.
func (m *Message) Field(name string) (*Field, bool) {
	for i := range m.Fields {
		if m.Fields[i].Name.EqualFold(name) {
			return &m.Fields[i], true
		}
	}

	return nil, false
}

// FieldValue returns the value of the first field matching the name.
func (m *Message) FieldValue(name string) (*fieldstr.String, bool) {
	f, found := m.Field(name)
	if !found {
		return nil, false
	}

	return &f.Value, true
}

func (m *Message) reset() {
	m.Flags = 0
	m.Fields = m.Fields[:0]
	m.Trailers = m.Trailers[:0]
	m.ContentLength = 0
	m.BodyMode = BodyNone
	m.Body.Reset()
	m.ConsumedLen = 0
	m.headers.Clear()
	m.body.Clear()
}
