package http1

import (
	"github.com/bulwark-proxy/bulwark/config"
	"github.com/bulwark-proxy/bulwark/grammar"
	"github.com/bulwark-proxy/bulwark/http"
	"github.com/bulwark-proxy/bulwark/http/method"
	"github.com/bulwark-proxy/bulwark/http/proto"
	"github.com/bulwark-proxy/bulwark/http/status"
	"github.com/bulwark-proxy/bulwark/internal/buffer"
	"github.com/bulwark-proxy/bulwark/internal/strutil"
	"github.com/flrdv/uf"
)

type reqState uint8

const (
	eBegin reqState = iota + 1
	eLeadingLF
	eMethod
	ePath
	eProto
	eProtoCR
	eHeaders
	eBody
	eChunkedBody
	eTrailers
)

// Parser is a resumable HTTP/1.x request parser. Each call to Parse consumes
// some prefix of the passed data; the parser owns every byte it needs across
// feeds, so the caller is free to reuse its transport buffer immediately.
type Parser struct {
	cfg      *config.Config
	request  *http.Request
	state    reqState
	line     *buffer.Buffer
	fields   fieldScanner
	trailers fieldScanner
	chunked  chunkedParser
	bodyLeft uint64
}

func NewParser(cfg *config.Config, request *http.Request) *Parser {
	p := &Parser{
		cfg:     cfg,
		request: request,
		state:   eBegin,
		line: buffer.New(
			cfg.HTTP1.StartLine.Default, cfg.HTTP1.StartLine.Maximal,
		),
		fields:   newFieldScanner(cfg, &request.Message, false),
		trailers: newFieldScanner(cfg, &request.Message, true),
		chunked:  newChunkedParser(cfg.HTTP1.MaxChunkSizeDigits),
	}
	p.fields.onField = validateRequestField

	return p
}

// Reset prepares the parser for the next request on the same connection. The
// request object itself must be reset separately.
func (p *Parser) Reset(request *http.Request) {
	p.request = request
	p.state = eBegin
	p.line.Clear()
	p.fields.reset(&request.Message)
	p.trailers.reset(&request.Message)
	p.chunked = newChunkedParser(p.cfg.HTTP1.MaxChunkSizeDigits)
	p.bodyLeft = 0
}

// Parse consumes request bytes. done=false with a nil error means the message
// continues in the next feed; done=true returns the unconsumed remainder
// (the beginning of a pipelined followup, if any).
func (p *Parser) Parse(data []byte) (done bool, extra []byte, err error) {
	switch p.state {
	case eBegin:
		goto begin
	case eLeadingLF:
		goto leadingLF
	case eMethod:
		goto parseMethod
	case ePath:
		goto parsePath
	case eProto:
		goto parseProto
	case eProtoCR:
		goto protoCR
	case eHeaders:
		goto parseHeaders
	case eBody:
		goto parseBody
	case eChunkedBody:
		goto parseChunkedBody
	case eTrailers:
		goto parseTrailers
	default:
		panic("unreachable code")
	}

begin:
	if len(data) == 0 {
		p.state = eBegin
		return false, nil, nil
	}

	if p.cfg.HTTP1.AllowLeadingCRLF {
		switch data[0] {
		case '\r':
			p.request.Flags.Set(http.StrippedLeadingCR)
			data = data[1:]
			goto leadingLF
		case '\n':
			p.request.Flags.Set(http.StrippedLeadingLF)
			data = data[1:]
		}
	}

	goto parseMethod

leadingLF:
	if len(data) == 0 {
		p.state = eLeadingLF
		return false, nil, nil
	}

	if data[0] != '\n' {
		return false, nil, status.ErrBadStartLine
	}

	p.request.Flags.Set(http.StrippedLeadingLF)
	data = data[1:]
	goto parseMethod

parseMethod:
	for i := 0; i < len(data); i++ {
		if data[i] == ' ' {
			if p.line.SegmentLength() == 0 {
				return false, nil, status.ErrBadStartLine
			}

			p.request.Method = method.Parse(uf.B2S(p.line.Preview()))
			if p.request.Method == method.Unknown {
				return false, nil, status.ErrMethodNotImplemented
			}

			p.line.Discard()
			data = data[i+1:]
			goto parsePath
		}

		if !grammar.IsToken(data[i]) {
			return false, nil, status.ErrBadStartLine
		}

		if !p.line.AppendByte(data[i]) {
			return false, nil, status.ErrTooLongRequestLine
		}
	}

	p.state = eMethod
	return false, nil, nil

parsePath:
	for i := 0; i < len(data); i++ {
		if data[i] == ' ' {
			if p.line.SegmentLength() == 0 {
				return false, nil, status.ErrBadStartLine
			}

			path := p.request.HeaderStorage().Copy(p.line.Finish())
			if path == nil {
				return false, nil, status.ErrTooLongRequestLine
			}

			p.request.Path = uf.B2S(path)
			data = data[i+1:]
			goto parseProto
		}

		if !grammar.IsVChar(data[i]) {
			return false, nil, status.ErrBadStartLine
		}

		if !p.line.AppendByte(data[i]) {
			return false, nil, status.ErrTooLongRequestLine
		}
	}

	p.state = ePath
	return false, nil, nil

parseProto:
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\r':
			if err = p.commitProto(); err != nil {
				return false, nil, err
			}

			data = data[i+1:]
			goto protoCR
		case '\n':
			if err = p.commitProto(); err != nil {
				return false, nil, err
			}

			data = data[i+1:]
			goto parseHeaders
		default:
			if !p.line.AppendByte(data[i]) {
				return false, nil, status.ErrTooLongRequestLine
			}
		}
	}

	p.state = eProto
	return false, nil, nil

protoCR:
	if len(data) == 0 {
		p.state = eProtoCR
		return false, nil, nil
	}

	if data[0] != '\n' {
		return false, nil, status.ErrBadStartLine
	}

	data = data[1:]
	goto parseHeaders

parseHeaders:
	{
		sectionDone, rest, err := p.fields.scan(data)
		if err != nil {
			return false, nil, err
		}

		if !sectionDone {
			p.state = eHeaders
			return false, nil, nil
		}

		data = rest
		if err = p.applyFraming(); err != nil {
			return false, nil, err
		}

		switch p.request.BodyMode {
		case http.BodyChunked:
			goto parseChunkedBody
		case http.BodyContentLength:
			goto parseBody
		default:
			return p.complete(data)
		}
	}

parseBody:
	{
		n := min(p.bodyLeft, uint64(len(data)))
		if n > 0 {
			piece := p.request.BodyStorage().Copy(data[:n])
			if piece == nil {
				return false, nil, status.ErrBodyTooLarge
			}

			p.request.Body.Append(piece, 0)
			p.bodyLeft -= n
		}

		if p.bodyLeft > 0 {
			p.state = eBody
			return false, nil, nil
		}

		return p.complete(data[n:])
	}

parseChunkedBody:
	for {
		chunk, rest, bodyDone, err := p.chunked.parse(data)
		if err != nil {
			return false, nil, err
		}

		if len(chunk) > 0 {
			piece := p.request.BodyStorage().Copy(chunk)
			if piece == nil {
				return false, nil, status.ErrBodyTooLarge
			}

			p.request.Body.Append(piece, 0)
		}

		if bodyDone {
			data = rest
			goto parseTrailers
		}

		if len(rest) == 0 && chunk == nil {
			p.state = eChunkedBody
			return false, nil, nil
		}

		data = rest
	}

parseTrailers:
	{
		sectionDone, rest, err := p.trailers.scan(data)
		if err != nil {
			return false, nil, err
		}

		if !sectionDone {
			p.state = eTrailers
			return false, nil, nil
		}

		return p.complete(rest)
	}
}

func (p *Parser) commitProto() error {
	p.request.Protocol = proto.FromBytes(p.line.Preview())
	if p.request.Protocol&proto.HTTP1 == 0 {
		return status.ErrUnsupportedProtocol
	}

	p.line.Clear()
	return nil
}

// applyFraming settles the body mode once the header section is complete.
func (p *Parser) applyFraming() error {
	r := p.request
	r.Flags.Set(http.HeadersParsed)

	if p.fields.close {
		r.Flags.Set(http.ConnectionClose)
	}

	if p.fields.seenTE {
		// a request with transfer codings must end in chunked, otherwise
		// its length cannot be determined at all
		if !p.fields.chunked {
			return status.ErrBadEncoding
		}

		// chunked framing did not exist before HTTP/1.1, and combining it
		// with an explicit length makes the message ambiguous: classic
		// request smuggling territory
		if r.Protocol == proto.HTTP10 || p.fields.seenContentLength {
			return status.ErrBadEncoding
		}
	}

	if r.Method.Bodyless() && (p.fields.chunked || p.fields.contentLength > 0) {
		return status.ErrBodylessMethod
	}

	switch {
	case p.fields.chunked:
		r.Flags.Set(http.Chunked)
		r.BodyMode = http.BodyChunked
	case p.fields.contentLength > 0:
		if p.fields.contentLength > p.cfg.Body.MaxSize {
			return status.ErrBodyTooLarge
		}

		r.ContentLength = p.fields.contentLength
		r.BodyMode = http.BodyContentLength
		p.bodyLeft = p.fields.contentLength
	default:
		r.BodyMode = http.BodyNone
	}

	return nil
}

func (p *Parser) complete(extra []byte) (bool, []byte, error) {
	p.request.Flags.Set(http.Complete)
	return true, extra, nil
}

// validateRequestField enforces per-header grammar which plain field-value
// alphabet checks cannot express.
func validateRequestField(name string, value []byte) error {
	if strutil.EqualFold(name, "if-match") || strutil.EqualFold(name, "if-none-match") {
		return grammar.ParseETagList(value, func(grammar.ETag) error { return nil })
	}

	return nil
}
