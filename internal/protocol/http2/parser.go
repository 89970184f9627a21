// Package http2 implements the frame layer of HTTP/2: the connection
// preface, frame headers and payloads, stream lifecycle accounting and the
// assembly of one request from HEADERS, CONTINUATION and DATA frames.
package http2

import (
	"encoding/binary"

	"github.com/bulwark-proxy/bulwark/config"
	"github.com/bulwark-proxy/bulwark/fieldstr"
	"github.com/bulwark-proxy/bulwark/grammar"
	"github.com/bulwark-proxy/bulwark/http"
	"github.com/bulwark-proxy/bulwark/http/method"
	"github.com/bulwark-proxy/bulwark/http/proto"
	"github.com/bulwark-proxy/bulwark/http/status"
	"github.com/bulwark-proxy/bulwark/internal/protocol/http2/frame"
	"github.com/bulwark-proxy/bulwark/internal/protocol/http2/hpack"
	"github.com/bulwark-proxy/bulwark/internal/strutil"
	"github.com/flrdv/uf"
)

type connState uint8

const (
	ePreface connState = iota + 1
	eFrameHeader
	eFramePayload
)

// StreamState is the lifecycle position of one stream, following the state
// machine of RFC 9113 section 5.1 reduced to what a receiver observes.
type StreamState uint8

const (
	StreamIdle StreamState = iota
	StreamOpen
	StreamHalfClosedRemote
	StreamClosed
)

type stream struct {
	state StreamState
}

// Settings holds the peer's advertised settings, updated from every
// SETTINGS frame on the connection.
type Settings struct {
	HeaderTableSize      uint32
	EnablePush           uint32
	MaxConcurrentStreams uint32
	InitialWindowSize    uint32
	MaxFrameSize         uint32
	MaxHeaderListSize    uint32
}

func defaultSettings() Settings {
	return Settings{
		HeaderTableSize:   4096,
		EnablePush:        1,
		InitialWindowSize: 65535,
		MaxFrameSize:      16384,
	}
}

// Parser consumes one side of an HTTP/2 connection and assembles the first
// request-bearing stream into the bound request object. Frames of other
// streams are validated and tracked, but their content is not stored.
type Parser struct {
	cfg     *config.Config
	request *http.Request
	decoder *hpack.Decoder

	state       connState
	prefaceLeft int
	head        [frame.HeaderSize]byte
	headLen     int
	hdr         frame.Header
	payload     []byte

	streams  map[uint32]*stream
	maxSeen  uint32
	Settings Settings

	// curStream is the stream the bound request is assembled from.
	curStream        uint32
	headerBlock      []byte
	continuationFrom uint32
	inTrailers       bool
	blockEndStream   bool
	bodyLen          uint64

	seenContentLength bool
	seenRegular       bool
	pseudo            struct {
		method, scheme, path, authority []byte
	}
}

func NewParser(cfg *config.Config, request *http.Request) *Parser {
	prefaceLeft := 0
	state := eFrameHeader
	if cfg.HTTP2.RequirePreface {
		prefaceLeft = len(frame.ClientPreface)
		state = ePreface
	}

	return &Parser{
		cfg:         cfg,
		request:     request,
		decoder:     hpack.NewDecoder(cfg.HTTP2.HeaderTableSize),
		state:       state,
		prefaceLeft: prefaceLeft,
		streams:     make(map[uint32]*stream),
		Settings:    defaultSettings(),
	}
}

// Parse consumes connection bytes. done=true means the bound request is
// complete; extra returns the bytes behind the frame that completed it,
// which belong to later frames of the same connection.
func (p *Parser) Parse(data []byte) (done bool, extra []byte, err error) {
	for {
		switch p.state {
		case ePreface:
			n := min(len(data), p.prefaceLeft)
			expected := frame.ClientPreface[len(frame.ClientPreface)-p.prefaceLeft:]
			if uf.B2S(data[:n]) != expected[:n] {
				return false, nil, status.ErrBadPreface
			}

			p.prefaceLeft -= n
			data = data[n:]

			if p.prefaceLeft > 0 {
				return false, nil, nil
			}

			p.state = eFrameHeader
		case eFrameHeader:
			n := copy(p.head[p.headLen:], data)
			p.headLen += n
			data = data[n:]

			if p.headLen < frame.HeaderSize {
				return false, nil, nil
			}

			p.hdr = frame.ParseHeader(p.head[:])
			p.headLen = 0

			if p.hdr.Length > p.cfg.HTTP2.MaxFrameSize {
				return false, nil, status.ErrBadFrame
			}

			p.payload = p.payload[:0]
			p.state = eFramePayload
		case eFramePayload:
			need := int(p.hdr.Length) - len(p.payload)
			n := min(need, len(data))
			p.payload = append(p.payload, data[:n]...)
			data = data[n:]

			if len(p.payload) < int(p.hdr.Length) {
				return false, nil, nil
			}

			complete, err := p.processFrame(p.hdr, p.payload)
			if err != nil {
				return false, nil, err
			}

			p.state = eFrameHeader

			if complete {
				p.request.Flags.Set(http.Complete)
				return true, data, nil
			}
		default:
			panic("unreachable code")
		}
	}
}

func (p *Parser) processFrame(h frame.Header, payload []byte) (complete bool, err error) {
	// a started header block owns the connection until END_HEADERS
	if p.continuationFrom != 0 &&
		(h.Type != frame.Continuation || h.StreamID != p.continuationFrom) {
		return false, status.ErrProtocolViolation
	}

	switch h.Type {
	case frame.Data:
		return p.processData(h, payload)
	case frame.Headers:
		return p.processHeaders(h, payload)
	case frame.Continuation:
		if p.continuationFrom == 0 {
			return false, status.ErrProtocolViolation
		}

		if err := p.appendHeaderBlock(payload); err != nil {
			return false, err
		}

		if h.Flags.Has(frame.FlagEndHeaders) {
			p.continuationFrom = 0
			return p.finishHeaderBlock()
		}

		return false, nil
	case frame.Priority:
		if h.StreamID == 0 || h.Length != 5 {
			return false, status.ErrBadFrame
		}
	case frame.RSTStream:
		if h.StreamID == 0 || h.Length != 4 {
			return false, status.ErrBadFrame
		}

		if p.streamOf(h.StreamID) == nil && h.StreamID > p.maxSeen {
			// resetting an idle stream
			return false, status.ErrProtocolViolation
		}

		p.closeStream(h.StreamID)
	case frame.Settings:
		return false, p.processSettings(h, payload)
	case frame.PushPromise:
		// clients never promise
		return false, status.ErrProtocolViolation
	case frame.Ping:
		if h.StreamID != 0 || h.Length != 8 {
			return false, status.ErrBadFrame
		}
	case frame.GoAway:
		if h.StreamID != 0 || h.Length < 8 {
			return false, status.ErrBadFrame
		}
	case frame.WindowUpdate:
		if h.Length != 4 {
			return false, status.ErrBadFrame
		}

		if binary.BigEndian.Uint32(payload)&0x7fffffff == 0 {
			return false, status.ErrProtocolViolation
		}
	default:
		// unknown frame types are ignored
	}

	return false, nil
}

func (p *Parser) processSettings(h frame.Header, payload []byte) error {
	if h.StreamID != 0 {
		return status.ErrBadFrame
	}

	if h.Flags.Has(frame.FlagAck) {
		if h.Length != 0 {
			return status.ErrBadFrame
		}

		return nil
	}

	if h.Length%6 != 0 {
		return status.ErrBadFrame
	}

	for ; len(payload) > 0; payload = payload[6:] {
		id := binary.BigEndian.Uint16(payload)
		value := binary.BigEndian.Uint32(payload[2:])

		switch id {
		case frame.SettingHeaderTableSize:
			p.Settings.HeaderTableSize = value
		case frame.SettingEnablePush:
			if value > 1 {
				return status.ErrProtocolViolation
			}

			p.Settings.EnablePush = value
		case frame.SettingMaxConcurrentStreams:
			p.Settings.MaxConcurrentStreams = value
		case frame.SettingInitialWindowSize:
			if value > 1<<31-1 {
				return status.ErrProtocolViolation
			}

			p.Settings.InitialWindowSize = value
		case frame.SettingMaxFrameSize:
			if value < 16384 || value > 1<<24-1 {
				return status.ErrProtocolViolation
			}

			p.Settings.MaxFrameSize = value
		case frame.SettingMaxHeaderListSize:
			p.Settings.MaxHeaderListSize = value
		default:
			// unknown settings are ignored
		}
	}

	return nil
}

func (p *Parser) processHeaders(h frame.Header, payload []byte) (complete bool, err error) {
	if h.StreamID == 0 || h.StreamID%2 == 0 {
		return false, status.ErrProtocolViolation
	}

	s := p.streamOf(h.StreamID)
	switch {
	case s == nil:
		if h.StreamID <= p.maxSeen {
			// stream identifiers only grow
			return false, status.ErrProtocolViolation
		}

		p.streams[h.StreamID] = &stream{state: StreamOpen}
		p.maxSeen = h.StreamID

		if p.curStream == 0 {
			p.curStream = h.StreamID
		}
	case s.state == StreamHalfClosedRemote, s.state == StreamClosed:
		return false, status.ErrStreamClosed
	default:
		// HEADERS on an open stream is the trailer section, which must end
		// the stream
		if !h.Flags.Has(frame.FlagEndStream) {
			return false, status.ErrProtocolViolation
		}

		if h.StreamID == p.curStream {
			p.inTrailers = true
		}
	}

	payload, err = stripPadding(h, payload)
	if err != nil {
		return false, err
	}

	if h.Flags.Has(frame.FlagPriority) {
		if len(payload) < 5 {
			return false, status.ErrBadFrame
		}

		payload = payload[5:]
	}

	if h.Flags.Has(frame.FlagEndStream) {
		p.blockEndStream = true
	}

	if err := p.appendHeaderBlock(payload); err != nil {
		return false, err
	}

	if !h.Flags.Has(frame.FlagEndHeaders) {
		p.continuationFrom = h.StreamID
		return false, nil
	}

	return p.finishHeaderBlock()
}

func (p *Parser) processData(h frame.Header, payload []byte) (complete bool, err error) {
	if h.StreamID == 0 {
		return false, status.ErrProtocolViolation
	}

	s := p.streamOf(h.StreamID)
	if s == nil {
		// DATA on an idle stream
		return false, status.ErrProtocolViolation
	}

	if s.state != StreamOpen {
		return false, status.ErrStreamClosed
	}

	payload, err = stripPadding(h, payload)
	if err != nil {
		return false, err
	}

	if h.StreamID == p.curStream {
		if !p.request.Flags.Has(http.HeadersParsed) {
			return false, status.ErrProtocolViolation
		}

		if p.request.Method.Bodyless() && len(payload) > 0 {
			return false, status.ErrBodylessMethod
		}

		if len(payload) > 0 {
			piece := p.request.BodyStorage().Copy(payload)
			if piece == nil {
				return false, status.ErrBodyTooLarge
			}

			p.request.Body.Append(piece, 0)
			p.bodyLen += uint64(len(payload))
		}
	}

	if h.Flags.Has(frame.FlagEndStream) {
		s.state = StreamHalfClosedRemote

		if h.StreamID == p.curStream {
			return true, p.finishBody()
		}
	}

	return false, nil
}

func (p *Parser) appendHeaderBlock(fragment []byte) error {
	if len(p.headerBlock)+len(fragment) > p.cfg.HTTP2.MaxHeaderBlockSize {
		return status.ErrHeaderFieldsTooLarge
	}

	p.headerBlock = append(p.headerBlock, fragment...)
	return nil
}

func (p *Parser) finishHeaderBlock() (complete bool, err error) {
	block := p.headerBlock
	p.headerBlock = p.headerBlock[:0]
	endStream := p.blockEndStream
	p.blockEndStream = false
	id := p.hdr.StreamID

	if id != p.curStream {
		// a foreign stream's block still must decode to keep the dynamic
		// table synchronized
		if err := p.decoder.Decode(block, func(_, _ []byte) error { return nil }); err != nil {
			return false, err
		}

		if endStream {
			p.streamOf(id).state = StreamHalfClosedRemote
		}

		return false, nil
	}

	if err := p.decoder.Decode(block, p.onField); err != nil {
		return false, err
	}

	if p.inTrailers {
		p.streamOf(id).state = StreamHalfClosedRemote
		return true, p.finishBody()
	}

	if err := p.commitRequestLine(); err != nil {
		return false, err
	}

	if endStream {
		p.streamOf(id).state = StreamHalfClosedRemote
		return true, p.finishBody()
	}

	return false, nil
}

// onField receives one decompressed field line. Pseudo-header fields must
// precede regular ones and may not repeat.
func (p *Parser) onField(name, value []byte) error {
	if len(name) == 0 {
		return status.ErrBadHeaderName
	}

	if name[0] == ':' {
		if p.seenRegular || p.inTrailers {
			return status.ErrProtocolViolation
		}

		return p.onPseudoField(name, value)
	}

	p.seenRegular = true

	for _, c := range name {
		// field names arrive already lowercased, anything else is a
		// malformed message
		if c >= 'A' && c <= 'Z' || !grammar.IsToken(c) {
			return status.ErrBadHeaderName
		}
	}

	for _, c := range value {
		if !grammar.IsFieldChar(c) {
			return status.ErrBadHeaderValue
		}
	}

	sname := uf.B2S(name)

	// connection-specific fields do not exist in HTTP/2
	if strutil.EqualFold(sname, "connection") ||
		strutil.EqualFold(sname, "transfer-encoding") ||
		strutil.EqualFold(sname, "keep-alive") ||
		strutil.EqualFold(sname, "upgrade") {
		return status.ErrProtocolViolation
	}

	if strutil.EqualFold(sname, "te") && !strutil.EqualFold(uf.B2S(value), "trailers") {
		return status.ErrProtocolViolation
	}

	if strutil.EqualFold(sname, "content-length") {
		length, err := grammar.ParseUint(value, grammar.Bit32)
		if err != nil {
			return err
		}

		if p.seenContentLength && length != p.request.ContentLength {
			return status.ErrDuplicateHeader
		}

		if length > p.cfg.Body.MaxSize {
			return status.ErrBodyTooLarge
		}

		p.seenContentLength = true
		p.request.ContentLength = length
	}

	arena := p.request.HeaderStorage()
	storedName := arena.Copy(name)
	storedValue := arena.Copy(value)
	if storedName == nil || storedValue == nil {
		return status.ErrHeaderFieldsTooLarge
	}

	var f http.Field
	f.Name.Append(storedName, fieldstr.Name)
	f.Value.Append(storedValue, fieldstr.Value)

	if p.inTrailers {
		if len(p.request.Trailers) == p.cfg.Headers.Number.Maximal {
			return status.ErrTooManyHeaders
		}

		p.request.Trailers = append(p.request.Trailers, f)
	} else {
		if len(p.request.Fields) == p.cfg.Headers.Number.Maximal {
			return status.ErrTooManyHeaders
		}

		p.request.Fields = append(p.request.Fields, f)
	}

	return nil
}

func (p *Parser) onPseudoField(name, value []byte) error {
	var slot *[]byte

	switch uf.B2S(name) {
	case ":method":
		slot = &p.pseudo.method
	case ":scheme":
		slot = &p.pseudo.scheme
	case ":path":
		slot = &p.pseudo.path
	case ":authority":
		slot = &p.pseudo.authority
	default:
		return status.ErrProtocolViolation
	}

	if *slot != nil {
		return status.ErrProtocolViolation
	}

	stored := p.request.HeaderStorage().Copy(value)
	if stored == nil {
		return status.ErrHeaderFieldsTooLarge
	}

	*slot = stored
	return nil
}

// commitRequestLine settles what a request line carries in HTTP/1 territory
// once the main header block is complete.
func (p *Parser) commitRequestLine() error {
	if p.pseudo.method == nil || p.pseudo.scheme == nil || p.pseudo.path == nil {
		return status.ErrProtocolViolation
	}

	if len(p.pseudo.path) == 0 {
		return status.ErrProtocolViolation
	}

	for _, c := range p.pseudo.path {
		if !grammar.IsVChar(c) {
			return status.ErrBadRequest
		}
	}

	p.request.Method = method.Parse(uf.B2S(p.pseudo.method))
	if p.request.Method == method.Unknown {
		return status.ErrMethodNotImplemented
	}

	if p.request.Method.Bodyless() && p.seenContentLength && p.request.ContentLength > 0 {
		return status.ErrBodylessMethod
	}

	p.request.Path = uf.B2S(p.pseudo.path)
	p.request.Protocol = proto.HTTP2
	p.request.Flags.Set(http.IsHTTP2)
	p.request.Flags.Set(http.HeadersParsed)

	return nil
}

// finishBody runs once END_STREAM arrives on the request's stream.
func (p *Parser) finishBody() error {
	if p.seenContentLength && p.bodyLen != p.request.ContentLength {
		return status.ErrProtocolViolation
	}

	return nil
}

func (p *Parser) streamOf(id uint32) *stream {
	return p.streams[id]
}

func (p *Parser) closeStream(id uint32) {
	if s := p.streamOf(id); s != nil {
		s.state = StreamClosed
	}
}

// stripPadding removes the pad length octet and the padding itself from a
// PADDED frame payload.
func stripPadding(h frame.Header, payload []byte) ([]byte, error) {
	if !h.Flags.Has(frame.FlagPadded) {
		return payload, nil
	}

	if len(payload) == 0 {
		return nil, status.ErrBadFrame
	}

	padLen := int(payload[0])
	payload = payload[1:]

	if padLen > len(payload) {
		// padding exceeding the payload
		return nil, status.ErrProtocolViolation
	}

	return payload[:len(payload)-padLen], nil
}
