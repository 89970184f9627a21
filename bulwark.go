// Package bulwark is the message parsing core of an HTTP reverse proxy
// firewall: resumable HTTP/1.x and HTTP/2 parsers which assemble structured,
// self-owned message objects out of arbitrarily fragmented transport data
// and return a verdict for every feed.
package bulwark

import (
	"github.com/bulwark-proxy/bulwark/config"
	"github.com/bulwark-proxy/bulwark/http"
	"github.com/bulwark-proxy/bulwark/internal/protocol/http1"
	"github.com/bulwark-proxy/bulwark/internal/protocol/http2"
)

// Verdict is the outcome of feeding a piece of transport data.
type Verdict int8

const (
	// Postpone: the message is incomplete, more data is needed.
	Postpone Verdict = iota
	// Pass: the message completed and satisfied every check.
	Pass
	// Block: the data violates grammar, limits or protocol state. The
	// error carries the specific failure; the connection must be dropped.
	Block
)

func (v Verdict) String() string {
	switch v {
	case Postpone:
		return "postpone"
	case Pass:
		return "pass"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// Parser consumes transport data incrementally. consumed reports how many
// bytes of the feed belong to the current message: on Pass it may be less
// than len(data) when pipelined followup data sits behind the message end.
// The message object accumulates consumed lengths across feeds, so callers
// can compare the total with what was actually transmitted.
type Parser interface {
	Feed(data []byte) (verdict Verdict, consumed int, err error)
}

type requestParser struct {
	inner   *http1.Parser
	request *http.Request
}

// NewRequestParser returns a parser assembling one HTTP/1.x request into
// request. After a Pass verdict, reset both the request and the parser
// before reusing them for the next message of the connection.
func NewRequestParser(cfg *config.Config, request *http.Request) Parser {
	return &requestParser{
		inner:   http1.NewParser(cfg, request),
		request: request,
	}
}

func (p *requestParser) Feed(data []byte) (Verdict, int, error) {
	return feed(p.inner.Parse, &p.request.Message, data)
}

type responseParser struct {
	inner    *http1.ResponseParser
	response *http.Response
}

// NewResponseParser returns a parser assembling one HTTP/1.x response. The
// response must be paired with a completed request: feeding data without one
// yields Block.
func NewResponseParser(cfg *config.Config, response *http.Response) Parser {
	return &responseParser{
		inner:    http1.NewResponseParser(cfg, response),
		response: response,
	}
}

func (p *responseParser) Feed(data []byte) (Verdict, int, error) {
	return feed(p.inner.Parse, &p.response.Message, data)
}

type http2Parser struct {
	inner   *http2.Parser
	request *http.Request
}

// NewHTTP2Parser returns a parser consuming the client side of an HTTP/2
// connection and assembling its first request-bearing stream into request.
func NewHTTP2Parser(cfg *config.Config, request *http.Request) Parser {
	return &http2Parser{
		inner:   http2.NewParser(cfg, request),
		request: request,
	}
}

func (p *http2Parser) Feed(data []byte) (Verdict, int, error) {
	return feed(p.inner.Parse, &p.request.Message, data)
}

func feed(
	parse func([]byte) (bool, []byte, error), msg *http.Message, data []byte,
) (Verdict, int, error) {
	done, extra, err := parse(data)
	if err != nil {
		return Block, 0, err
	}

	consumed := len(data) - len(extra)
	msg.ConsumedLen += consumed

	if done {
		return Pass, consumed, nil
	}

	return Postpone, consumed, nil
}
