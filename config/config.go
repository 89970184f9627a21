package config

type (
	HeadersNumber struct {
		Default, Maximal int
	}

	HeadersSpace struct {
		Default, Maximal int
	}

	StartLineSize struct {
		Default, Maximal int
	}
)

type (
	Headers struct {
		// Number bounds how many header fields a single message may carry.
		// Default is the pre-allocated capacity.
		Number HeadersNumber
		// Space limits the amount of memory occupied by the stored header
		// fields of one message.
		Space HeadersSpace
	}

	Body struct {
		// MaxSize is the biggest message body the parser agrees to assemble.
		// Declared Content-Length values above it are rejected up front.
		MaxSize uint64
	}

	HTTP1 struct {
		// StartLine is a shared buffer bound for the request line or status
		// line.
		StartLine StartLineSize
		// AllowLeadingCRLF tolerates at most one CR and one LF in front of
		// the start line, recording the fact on the message. Some clients
		// leave a dangling CRLF after a previous message's body.
		AllowLeadingCRLF bool
		// MaxChunkSizeDigits bounds the hex chunk-size line of a chunked
		// body. 8 digits permit chunks up to 4GiB-1.
		MaxChunkSizeDigits int
	}

	HTTP2 struct {
		// RequirePreface demands the client connection preface before the
		// first frame. Disable for server-side streams which never carry one.
		RequirePreface bool
		// MaxFrameSize is the biggest frame payload accepted, mirroring
		// SETTINGS_MAX_FRAME_SIZE.
		MaxFrameSize uint32
		// HeaderTableSize is the budget of the HPACK dynamic table,
		// mirroring SETTINGS_HEADER_TABLE_SIZE.
		HeaderTableSize uint32
		// MaxHeaderBlockSize bounds an assembled header block (HEADERS plus
		// CONTINUATION payloads) for one field section.
		MaxHeaderBlockSize int
	}
)

// Config holds restrictions and pre-allocation hints used across the parsing
// core. Always modify defaults returned via Default instead of constructing
// the struct manually.
type Config struct {
	Headers Headers
	Body    Body
	HTTP1   HTTP1
	HTTP2   HTTP2
}

func Default() *Config {
	return &Config{
		Headers: Headers{
			Number: HeadersNumber{
				Default: 16,
				Maximal: 100,
			},
			Space: HeadersSpace{
				Default: 1024,
				Maximal: 96 * 1024,
			},
		},
		Body: Body{
			MaxSize: 512 * 1024 * 1024,
		},
		HTTP1: HTTP1{
			StartLine: StartLineSize{
				Default: 256,
				Maximal: 16 * 1024,
			},
			AllowLeadingCRLF:   true,
			MaxChunkSizeDigits: 8,
		},
		HTTP2: HTTP2{
			RequirePreface:     true,
			MaxFrameSize:       16384,
			HeaderTableSize:    4096,
			MaxHeaderBlockSize: 96 * 1024,
		},
	}
}
