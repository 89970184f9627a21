// Package frame defines the HTTP/2 binary framing vocabulary: frame types,
// flags, the 9-octet frame header and settings identifiers.
package frame

import "encoding/binary"

// ClientPreface opens every HTTP/2 client connection.
const ClientPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// HeaderSize is the wire size of a frame header.
const HeaderSize = 9

type Type uint8

const (
	Data         Type = 0x0
	Headers      Type = 0x1
	Priority     Type = 0x2
	RSTStream    Type = 0x3
	Settings     Type = 0x4
	PushPromise  Type = 0x5
	Ping         Type = 0x6
	GoAway       Type = 0x7
	WindowUpdate Type = 0x8
	Continuation Type = 0x9
)

func (t Type) String() string {
	names := [...]string{
		Data:         "DATA",
		Headers:      "HEADERS",
		Priority:     "PRIORITY",
		RSTStream:    "RST_STREAM",
		Settings:     "SETTINGS",
		PushPromise:  "PUSH_PROMISE",
		Ping:         "PING",
		GoAway:       "GOAWAY",
		WindowUpdate: "WINDOW_UPDATE",
		Continuation: "CONTINUATION",
	}
	if int(t) >= len(names) {
		return "UNKNOWN"
	}

	return names[t]
}

type Flags uint8

const (
	FlagEndStream  Flags = 0x1
	FlagAck        Flags = 0x1
	FlagEndHeaders Flags = 0x4
	FlagPadded     Flags = 0x8
	FlagPriority   Flags = 0x20
)

func (f Flags) Has(flag Flags) bool { return f&flag == flag }

// Header is a decoded 9-octet frame header.
type Header struct {
	Length   uint32
	Type     Type
	Flags    Flags
	StreamID uint32
}

// ParseHeader decodes the frame header from exactly HeaderSize bytes. The
// reserved bit of the stream identifier is dropped.
func ParseHeader(b []byte) Header {
	_ = b[8]

	return Header{
		Length:   uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]),
		Type:     Type(b[3]),
		Flags:    Flags(b[4]),
		StreamID: binary.BigEndian.Uint32(b[5:9]) & 0x7fffffff,
	}
}

// AppendHeader encodes a frame header, for test traffic construction.
func AppendHeader(dst []byte, h Header) []byte {
	dst = append(dst, byte(h.Length>>16), byte(h.Length>>8), byte(h.Length))
	dst = append(dst, byte(h.Type), byte(h.Flags))

	return binary.BigEndian.AppendUint32(dst, h.StreamID&0x7fffffff)
}

// Setting identifiers of the SETTINGS frame.
const (
	SettingHeaderTableSize      = 0x1
	SettingEnablePush           = 0x2
	SettingMaxConcurrentStreams = 0x3
	SettingInitialWindowSize    = 0x4
	SettingMaxFrameSize         = 0x5
	SettingMaxHeaderListSize    = 0x6
)
