package grammar

import (
	"github.com/bulwark-proxy/bulwark/http/status"
	"github.com/bulwark-proxy/bulwark/internal/strutil"
)

// ETag is a validated entity tag: the opaque quoted content plus the
// weakness marker.
type ETag struct {
	Opaque []byte
	Weak   bool
}

// ParseETag validates a single entity tag: an optional case-sensitive W/
// prefix followed by a double-quoted, non-empty sequence of etagc octets.
// Returns the tag and the number of bytes consumed, so list parsing can
// continue right behind it.
func ParseETag(b []byte) (tag ETag, n int, err error) {
	rest := b

	if len(rest) >= 2 && rest[0] == 'W' && rest[1] == '/' {
		tag.Weak = true
		rest = rest[2:]
	}

	if len(rest) == 0 || rest[0] != '"' {
		// catches lowercase w/, wrong quote characters, a space between
		// the weak prefix and the quote, and unquoted garbage
		return tag, 0, status.ErrBadETag
	}

	rest = rest[1:]
	opaque := rest

	for i := 0; i < len(rest); i++ {
		if rest[i] == '"' {
			if i == 0 {
				return tag, 0, status.ErrBadETag
			}

			tag.Opaque = opaque[:i]
			return tag, len(b) - len(rest) + i + 1, nil
		}

		if !IsETagChar(rest[i]) {
			return tag, 0, status.ErrBadETag
		}
	}

	// no closing quote
	return tag, 0, status.ErrBadETag
}

// ValidateETag validates b as exactly one entity tag with nothing around it.
func ValidateETag(b []byte) (ETag, error) {
	tag, n, err := ParseETag(b)
	if err != nil {
		return tag, err
	}

	if n != len(b) {
		// trailing bytes after the closing quote, e.g. `"x""`
		return tag, status.ErrBadETag
	}

	return tag, nil
}

// ParseETagList validates an If-None-Match style value: either a sole "*" or
// a comma-separated list of entity tags. Each tag is reported through emit.
func ParseETagList(b []byte, emit func(ETag) error) error {
	b = strutil.StripWS(b)

	if len(b) == 1 && b[0] == '*' {
		return emit(ETag{Opaque: b})
	}

	for {
		tag, n, err := ParseETag(b)
		if err != nil {
			return err
		}

		if err := emit(tag); err != nil {
			return err
		}

		b = strutil.StripWS(b[n:])
		if len(b) == 0 {
			return nil
		}

		if b[0] != ',' {
			return status.ErrBadETag
		}

		b = strutil.StripWS(b[1:])
		if len(b) == 0 {
			// trailing comma with no tag behind it
			return status.ErrBadETag
		}
	}
}

