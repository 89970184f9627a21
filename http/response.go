package http

import (
	"github.com/bulwark-proxy/bulwark/config"
	"github.com/bulwark-proxy/bulwark/http/proto"
	"github.com/bulwark-proxy/bulwark/http/status"
)

// Response is the message assembled from a backend. A response can only be
// parsed against the completed request it answers: the request's method
// disambiguates body framing (e.g. HEAD responses carry no body no matter
// what Content-Length declares).
type Response struct {
	Message
	Status   status.Code
	Reason   string
	Protocol proto.Protocol
	// Request is the paired, completed request this response answers.
	Request *Request
}

func NewResponse(cfg *config.Config, paired *Request) *Response {
	return &Response{
		Message: newMessage(cfg),
		Request: paired,
	}
}

func (r *Response) Reset() {
	r.Message.reset()
	r.Status = 0
	r.Reason = ""
	r.Protocol = proto.Unknown
}
