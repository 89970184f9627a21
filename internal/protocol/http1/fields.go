package http1

import (
	"github.com/bulwark-proxy/bulwark/config"
	"github.com/bulwark-proxy/bulwark/fieldstr"
	"github.com/bulwark-proxy/bulwark/grammar"
	"github.com/bulwark-proxy/bulwark/http"
	"github.com/bulwark-proxy/bulwark/http/status"
	"github.com/bulwark-proxy/bulwark/internal/strutil"
	"github.com/flrdv/uf"
)

type fsState uint8

const (
	fsLineStart fsState = iota + 1
	fsSectionCR
	fsName
	fsAfterColon
	fsValue
	fsValueCR
)

// fieldScanner consumes one header (or trailer) section byte by byte,
// storing completed fields into the message. It is resumable at any split
// point: partial names and values are anchored in the message's header arena
// between feeds, never in the transport buffer.
type fieldScanner struct {
	cfg     *config.Config
	msg     *http.Message
	state   fsState
	name    []byte
	count   int
	trailer bool

	// onField lets the owning parser hook per-header validation which
	// differs between requests and responses (entity tags and the like).
	onField func(name string, value []byte) error

	seenContentLength bool
	contentLength     uint64
	seenTE            bool
	chunked           bool
	close             bool
}

func newFieldScanner(cfg *config.Config, msg *http.Message, trailer bool) fieldScanner {
	return fieldScanner{
		cfg:     cfg,
		msg:     msg,
		state:   fsLineStart,
		trailer: trailer,
	}
}

func (s *fieldScanner) reset(msg *http.Message) {
	s.msg = msg
	s.state = fsLineStart
	s.name = nil
	s.count = 0
	s.seenContentLength = false
	s.contentLength = 0
	s.seenTE = false
	s.chunked = false
	s.close = false
}

// scan consumes bytes until the section-terminating empty line. done=false
// with a nil error means the section continues in the next feed.
func (s *fieldScanner) scan(data []byte) (done bool, extra []byte, err error) {
	arena := s.msg.HeaderStorage()

	for i := 0; i < len(data); i++ {
		c := data[i]

		switch s.state {
		case fsLineStart:
			switch c {
			case '\r':
				s.state = fsSectionCR
			case '\n':
				return true, data[i+1:], nil
			case ' ', '\t':
				// obsolete line folding is not honored: a header value may
				// not span multiple physical lines
				return false, nil, status.ErrFoldedHeader
			default:
				if !grammar.IsToken(c) {
					return false, nil, status.ErrBadHeaderName
				}

				if s.count++; s.count > s.cfg.Headers.Number.Maximal {
					return false, nil, status.ErrTooManyHeaders
				}

				if !arena.AppendByte(c) {
					return false, nil, status.ErrHeaderFieldsTooLarge
				}

				s.state = fsName
			}
		case fsSectionCR:
			if c != '\n' {
				return false, nil, status.ErrBadRequest
			}

			return true, data[i+1:], nil
		case fsName:
			switch c {
			case ':':
				s.name = arena.Finish()
				s.state = fsAfterColon
			case '\r', '\n':
				// a field line without a colon
				return false, nil, status.ErrBadHeaderName
			default:
				if !grammar.IsToken(c) {
					return false, nil, status.ErrBadHeaderName
				}

				if !arena.AppendByte(c) {
					return false, nil, status.ErrHeaderFieldsTooLarge
				}
			}
		case fsAfterColon:
			switch c {
			case ' ', '\t':
			case '\r':
				s.state = fsValueCR
			case '\n':
				if err := s.finalize(); err != nil {
					return false, nil, err
				}

				s.state = fsLineStart
			default:
				if !grammar.IsFieldChar(c) {
					return false, nil, status.ErrBadHeaderValue
				}

				if !arena.AppendByte(c) {
					return false, nil, status.ErrHeaderFieldsTooLarge
				}

				s.state = fsValue
			}
		case fsValue:
			switch c {
			case '\r':
				s.state = fsValueCR
			case '\n':
				if err := s.finalize(); err != nil {
					return false, nil, err
				}

				s.state = fsLineStart
			default:
				if !grammar.IsFieldChar(c) {
					return false, nil, status.ErrBadHeaderValue
				}

				if !arena.AppendByte(c) {
					return false, nil, status.ErrHeaderFieldsTooLarge
				}
			}
		case fsValueCR:
			if c != '\n' {
				return false, nil, status.ErrBadRequest
			}

			if err := s.finalize(); err != nil {
				return false, nil, err
			}

			s.state = fsLineStart
		default:
			panic("unreachable code")
		}
	}

	return false, nil, nil
}

// finalize completes the field whose name is pending and whose value is the
// current arena segment.
func (s *fieldScanner) finalize() error {
	arena := s.msg.HeaderStorage()

	// trailing OWS belongs to the line terminator, not to the value
	trail := len(arena.Preview()) - len(strutil.RStripWS(arena.Preview()))
	arena.Trunc(trail)

	value := arena.Finish()
	name := uf.B2S(s.name)

	var f http.Field
	f.Name.Append(s.name, fieldstr.Name)
	if isListValued(name) {
		f.Value.AppendList(value)
	} else {
		f.Value.Append(value, fieldstr.Value)
	}

	if s.trailer {
		s.msg.Trailers = append(s.msg.Trailers, f)
	} else {
		if err := s.special(name, value, &f); err != nil {
			return err
		}

		s.msg.Fields = append(s.msg.Fields, f)
	}

	if s.onField != nil {
		if err := s.onField(name, value); err != nil {
			return err
		}
	}

	s.name = nil
	return nil
}

// special applies the policies of headers which alter message framing.
func (s *fieldScanner) special(name string, value []byte, f *http.Field) error {
	switch len(name) {
	case len("connection"):
		if strutil.EqualFold(name, "connection") {
			for v := range f.Value.Values() {
				if v.EqualFold("close") {
					s.close = true
				}
			}
		}
	case len("content-length"):
		if strutil.EqualFold(name, "content-length") {
			length, err := grammar.ParseUint(value, grammar.Bit32)
			if err != nil {
				return err
			}

			if s.seenContentLength && length != s.contentLength {
				return status.ErrDuplicateHeader
			}

			s.seenContentLength = true
			s.contentLength = length
		}
	case len("transfer-encoding"):
		if strutil.EqualFold(name, "transfer-encoding") {
			if s.seenTE {
				return status.ErrBadEncoding
			}
			s.seenTE = true

			last := ""
			for v := range f.Value.Values() {
				if s.chunked {
					// chunked anywhere but the final position
					return status.ErrBadEncoding
				}

				last = v.String()
				if strutil.EqualFold(last, "chunked") {
					s.chunked = true
				}
			}

			if last == "" {
				return status.ErrBadEncoding
			}
		}
	}

	return nil
}

// isListValued reports whether a header's value is defined as a
// comma-separated list, so its items should be split into separate
// value chunks.
func isListValued(name string) bool {
	for _, known := range listValuedHeaders {
		if strutil.EqualFold(name, known) {
			return true
		}
	}

	return false
}

var listValuedHeaders = []string{
	"accept",
	"accept-charset",
	"accept-encoding",
	"accept-language",
	"cache-control",
	"connection",
	"content-encoding",
	"forwarded",
	"if-match",
	"if-none-match",
	"trailer",
	"transfer-encoding",
	"upgrade",
	"vary",
	"via",
	"warning",
}
