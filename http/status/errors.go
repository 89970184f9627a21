// Package status defines the error vocabulary of the parsing core. Every
// parse failure is one of these sentinel errors; at the public boundary they
// all collapse into the Block verdict, while the Kind stays available for
// diagnostics of the embedding proxy.
package status

// Kind classifies a parse failure. It never changes caller-visible control
// flow: any kind means Block.
type Kind uint8

const (
	// KindGrammar: a byte outside the allowed alphabet for the current field.
	KindGrammar Kind = iota + 1
	// KindRange: a numeric value outside its permitted width, or a declared
	// length exceeding a structural limit.
	KindRange
	// KindProtocol: an HTTP/2 frame or stream-state invariant is broken.
	KindProtocol
	// KindPairing: response parsing was requested without a valid, completed
	// paired request.
	KindPairing
)

type HTTPError struct {
	Message string
	Code    Code
	Kind    Kind
}

func NewError(code Code, kind Kind, message string) error {
	return HTTPError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrBadRequest           = NewError(BadRequest, KindGrammar, "bad request")
	ErrBadStartLine         = NewError(BadRequest, KindGrammar, "malformed start line")
	ErrBadHeaderName        = NewError(BadRequest, KindGrammar, "illegal character in header name")
	ErrBadHeaderValue       = NewError(BadRequest, KindGrammar, "illegal character in header value")
	ErrFoldedHeader         = NewError(BadRequest, KindGrammar, "obsolete header line folding")
	ErrBadChunk             = NewError(BadRequest, KindGrammar, "malformed chunk-encoded data")
	ErrBadETag              = NewError(BadRequest, KindGrammar, "malformed entity tag")
	ErrMalformedNumber      = NewError(BadRequest, KindGrammar, "malformed numeric value")
	ErrBadEncoding          = NewError(BadRequest, KindGrammar, "bad message encoding")
	ErrMethodNotImplemented = NewError(NotImplemented, KindGrammar, "request method is not supported")
	ErrUnsupportedProtocol  = NewError(HTTPVersionNotSupported, KindGrammar, "HTTP version not supported")

	ErrNumberOutOfRange     = NewError(BadRequest, KindRange, "numeric value exceeds permitted width")
	ErrDuplicateHeader      = NewError(BadRequest, KindRange, "duplicate singular header")
	ErrTooLongRequestLine   = NewError(RequestURITooLong, KindRange, "request line is too long")
	ErrHeaderFieldsTooLarge = NewError(HeaderFieldsTooLarge, KindRange, "too large headers section")
	ErrTooManyHeaders       = NewError(HeaderFieldsTooLarge, KindRange, "too many headers")
	ErrBodyTooLarge         = NewError(RequestEntityTooLarge, KindRange, "message body is too large")

	ErrProtocolViolation = NewError(BadRequest, KindProtocol, "HTTP/2 protocol violation")
	ErrBadFrame          = NewError(BadRequest, KindProtocol, "malformed HTTP/2 frame")
	ErrBadPreface        = NewError(BadRequest, KindProtocol, "malformed connection preface")
	ErrStreamClosed      = NewError(BadRequest, KindProtocol, "frame on a half-closed stream")
	ErrCompression       = NewError(BadRequest, KindProtocol, "header compression failure")
	ErrBodylessMethod    = NewError(BadRequest, KindProtocol, "body on a bodyless method")

	ErrNoPairedRequest = NewError(InternalServerError, KindPairing, "response has no completed paired request")
)
