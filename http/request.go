package http

import (
	"github.com/bulwark-proxy/bulwark/config"
	"github.com/bulwark-proxy/bulwark/http/method"
	"github.com/bulwark-proxy/bulwark/http/proto"
)

// Request is the message assembled from a client.
type Request struct {
	Message
	Method method.Method
	// Path is the raw request target as it appeared on the wire, anchored in
	// message-owned storage. The core validates its alphabet but deliberately
	// performs no percent-decoding: the firewall must inspect exactly what
	// the backend will receive.
	Path     string
	Protocol proto.Protocol
}

func NewRequest(cfg *config.Config) *Request {
	return &Request{
		Message: newMessage(cfg),
	}
}

func (r *Request) Reset() {
	r.Message.reset()
	r.Method = method.Unknown
	r.Path = ""
	r.Protocol = proto.Unknown
}
