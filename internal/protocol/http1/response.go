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
	"github.com/scott-ainsworth/go-ascii"
)

type respState uint8

const (
	rsProto respState = iota + 1
	rsStatusCode
	rsAfterStatus
	rsReason
	rsReasonCR
	rsHeaders
	rsBody
	rsChunkedBody
	rsTrailers
	rsBodyUntilClose
)

// ResponseParser is a resumable HTTP/1.x response parser. It can only run
// against a completed paired request, whose method and the response's own
// status code together decide the body framing.
//
// An empty feed signals that the peer closed the connection: it completes a
// body framed by connection close and is a hard error anywhere else.
type ResponseParser struct {
	cfg      *config.Config
	response *http.Response
	state    respState
	line     *buffer.Buffer
	fields   fieldScanner
	trailers fieldScanner
	chunked  chunkedParser
	bodyLeft uint64
	digits   int
}

func NewResponseParser(cfg *config.Config, response *http.Response) *ResponseParser {
	p := &ResponseParser{
		cfg:      cfg,
		response: response,
		state:    rsProto,
		line: buffer.New(
			cfg.HTTP1.StartLine.Default, cfg.HTTP1.StartLine.Maximal,
		),
		fields:   newFieldScanner(cfg, &response.Message, false),
		trailers: newFieldScanner(cfg, &response.Message, true),
		chunked:  newChunkedParser(cfg.HTTP1.MaxChunkSizeDigits),
	}
	p.fields.onField = validateResponseField

	return p
}

// Reset prepares the parser for the next response on the same connection.
func (p *ResponseParser) Reset(response *http.Response) {
	p.response = response
	p.state = rsProto
	p.line.Clear()
	p.fields.reset(&response.Message)
	p.trailers.reset(&response.Message)
	p.chunked = newChunkedParser(p.cfg.HTTP1.MaxChunkSizeDigits)
	p.bodyLeft = 0
	p.digits = 0
}

func (p *ResponseParser) Parse(data []byte) (done bool, extra []byte, err error) {
	if r := p.response.Request; r == nil || !r.Flags.Has(http.Complete) {
		return false, nil, status.ErrNoPairedRequest
	}

	if len(data) == 0 {
		// peer EOF
		if p.state == rsBodyUntilClose {
			return p.complete(nil)
		}

		return false, nil, status.ErrBadRequest
	}

	switch p.state {
	case rsProto:
		goto parseProto
	case rsStatusCode:
		goto parseStatusCode
	case rsAfterStatus:
		goto afterStatus
	case rsReason:
		goto parseReason
	case rsReasonCR:
		goto reasonCR
	case rsHeaders:
		goto parseHeaders
	case rsBody:
		goto parseBody
	case rsChunkedBody:
		goto parseChunkedBody
	case rsTrailers:
		goto parseTrailers
	case rsBodyUntilClose:
		goto parseBodyUntilClose
	default:
		panic("unreachable code")
	}

parseProto:
	for i := 0; i < len(data); i++ {
		if data[i] == ' ' {
			p.response.Protocol = proto.FromBytes(p.line.Preview())
			if p.response.Protocol&proto.HTTP1 == 0 {
				return false, nil, status.ErrUnsupportedProtocol
			}

			p.line.Clear()
			data = data[i+1:]
			goto parseStatusCode
		}

		if !p.line.AppendByte(data[i]) {
			return false, nil, status.ErrBadStartLine
		}
	}

	p.state = rsProto
	return false, nil, nil

parseStatusCode:
	for i := 0; i < len(data); i++ {
		c := data[i]
		if !ascii.IsDigit(c) {
			data = data[i:]
			goto afterStatus
		}

		if p.digits++; p.digits > 3 {
			return false, nil, status.ErrBadStartLine
		}

		p.response.Status = p.response.Status*10 + status.Code(c-'0')
	}

	p.state = rsStatusCode
	return false, nil, nil

afterStatus:
	if p.digits != 3 || p.response.Status < 100 {
		return false, nil, status.ErrBadStartLine
	}

	switch data[0] {
	case ' ':
		data = data[1:]
		goto parseReason
	case '\r':
		data = data[1:]
		goto reasonCR
	case '\n':
		data = data[1:]
		goto parseHeaders
	default:
		return false, nil, status.ErrBadStartLine
	}

parseReason:
	for i := 0; i < len(data); i++ {
		switch c := data[i]; c {
		case '\r':
			if err = p.commitReason(); err != nil {
				return false, nil, err
			}

			data = data[i+1:]
			goto reasonCR
		case '\n':
			if err = p.commitReason(); err != nil {
				return false, nil, err
			}

			data = data[i+1:]
			goto parseHeaders
		case ' ', '\t':
			if !p.line.AppendByte(c) {
				return false, nil, status.ErrBadStartLine
			}
		default:
			if !grammar.IsFieldChar(c) {
				return false, nil, status.ErrBadStartLine
			}

			if !p.line.AppendByte(c) {
				return false, nil, status.ErrBadStartLine
			}
		}
	}

	p.state = rsReason
	return false, nil, nil

reasonCR:
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
			p.state = rsHeaders
			return false, nil, nil
		}

		data = rest
		if err = p.applyFraming(); err != nil {
			return false, nil, err
		}

		switch p.response.BodyMode {
		case http.BodyChunked:
			goto parseChunkedBody
		case http.BodyContentLength:
			goto parseBody
		case http.BodyUntilClose:
			goto parseBodyUntilClose
		default:
			return p.complete(data)
		}
	}

parseBody:
	{
		n := min(p.bodyLeft, uint64(len(data)))
		if n > 0 {
			piece := p.response.BodyStorage().Copy(data[:n])
			if piece == nil {
				return false, nil, status.ErrBodyTooLarge
			}

			p.response.Body.Append(piece, 0)
			p.bodyLeft -= n
		}

		if p.bodyLeft > 0 {
			p.state = rsBody
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
			piece := p.response.BodyStorage().Copy(chunk)
			if piece == nil {
				return false, nil, status.ErrBodyTooLarge
			}

			p.response.Body.Append(piece, 0)
		}

		if bodyDone {
			data = rest
			goto parseTrailers
		}

		if len(rest) == 0 && chunk == nil {
			p.state = rsChunkedBody
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
			p.state = rsTrailers
			return false, nil, nil
		}

		return p.complete(rest)
	}

parseBodyUntilClose:
	{
		piece := p.response.BodyStorage().Copy(data)
		if piece == nil {
			return false, nil, status.ErrBodyTooLarge
		}

		p.response.Body.Append(piece, 0)
		p.state = rsBodyUntilClose
		return false, nil, nil
	}
}

func (p *ResponseParser) commitReason() error {
	reason := p.response.HeaderStorage().Copy(p.line.Preview())
	if reason == nil {
		return status.ErrBadStartLine
	}

	p.response.Reason = uf.B2S(reason)
	p.line.Clear()
	return nil
}

// applyFraming settles the response body mode, which depends on the paired
// request's method along with the response's own headers and status code.
func (p *ResponseParser) applyFraming() error {
	r := p.response
	r.Flags.Set(http.HeadersParsed)

	if p.fields.close {
		r.Flags.Set(http.ConnectionClose)
	}

	if p.fields.seenTE {
		// a transfer coding combined with an explicit length makes the
		// message ambiguous, and codings did not exist before HTTP/1.1
		if r.Protocol == proto.HTTP10 || p.fields.seenContentLength {
			return status.ErrBadEncoding
		}
	}

	if p.fields.seenContentLength {
		if p.fields.contentLength > p.cfg.Body.MaxSize {
			return status.ErrBodyTooLarge
		}

		r.ContentLength = p.fields.contentLength
	}

	switch {
	case bodyless(r):
		r.BodyMode = http.BodyNone
	case p.fields.chunked:
		r.Flags.Set(http.Chunked)
		r.BodyMode = http.BodyChunked
	case p.fields.seenTE:
		// a non-chunked transfer coding leaves connection close as the only
		// length delimiter
		r.BodyMode = http.BodyUntilClose
	case p.fields.seenContentLength:
		if r.ContentLength == 0 {
			r.BodyMode = http.BodyNone
			break
		}

		r.BodyMode = http.BodyContentLength
		p.bodyLeft = r.ContentLength
	default:
		r.BodyMode = http.BodyUntilClose
	}

	return nil
}

// bodyless reports whether the response must not carry a body no matter what
// its headers declare.
func bodyless(r *http.Response) bool {
	if r.Request.Method == method.HEAD {
		return true
	}

	if r.Request.Method == method.CONNECT && r.Status/100 == 2 {
		return true
	}

	return r.Status/100 == 1 || r.Status == status.NoContent || r.Status == status.NotModified
}

func (p *ResponseParser) complete(extra []byte) (bool, []byte, error) {
	p.response.Flags.Set(http.Complete)
	return true, extra, nil
}

func validateResponseField(name string, value []byte) error {
	if strutil.EqualFold(name, "etag") {
		_, err := grammar.ValidateETag(value)
		return err
	}

	return nil
}
