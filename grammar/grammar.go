// Package grammar holds the character-class tables and strict value
// validators the parsers consult on every transition. The tables are fixed
// constants of the HTTP grammar and aren't runtime-configurable.
package grammar

import ascii "github.com/scott-ainsworth/go-ascii"

type class uint8

const (
	cToken class = 1 << iota
	cDelimiter
	cObsText
	cETag
	cField
)

// tokenExtra are the non-alphanumeric characters of tchar (RFC 9110 §5.6.2).
const tokenExtra = "!#$%&'*+-.^_`|~"

// delimiters are the visible characters which aren't tchar: they delimit
// protocol elements and are legal inside quoted strings and entity tags.
const delimiters = "(),/:;<=>?@[\\]{}"

var table = [256]class{}

func init() {
	for c := 0; c < 256; c++ {
		b := byte(c)

		switch {
		case ascii.IsDigit(b), ascii.IsLetter(b):
			table[c] |= cToken
		case contains(tokenExtra, b):
			table[c] |= cToken
		case contains(delimiters, b):
			table[c] |= cDelimiter
		}

		// obs-text: high octets beyond ASCII
		if c >= 0x80 {
			table[c] |= cObsText
		}
	}

	// entity-tag content: anything visible except DQUOTE, plus obs-text
	for c := 0; c < 256; c++ {
		cls := table[c]
		if cls&(cToken|cDelimiter|cObsText) != 0 && byte(c) != '"' {
			table[c] |= cETag
		}
	}

	// field content: VCHAR, obs-text, SP and HTAB
	for c := 0; c < 256; c++ {
		b := byte(c)
		if (ascii.IsPrint(b) && b != ' ') || table[c]&cObsText != 0 {
			table[c] |= cField
		}
	}
	table[' '] |= cField
	table['\t'] |= cField
}

func contains(set string, c byte) bool {
	for i := 0; i < len(set); i++ {
		if set[i] == c {
			return true
		}
	}

	return false
}

// IsToken reports whether c is a tchar.
func IsToken(c byte) bool { return table[c]&cToken != 0 }

// IsDelimiter reports whether c is a visible non-token delimiter.
func IsDelimiter(c byte) bool { return table[c]&cDelimiter != 0 }

// IsObsText reports whether c is an obs-text octet (0x80-0xFF).
func IsObsText(c byte) bool { return table[c]&cObsText != 0 }

// IsVChar reports whether c is a visible ASCII character.
func IsVChar(c byte) bool { return ascii.IsPrint(c) && c != ' ' }

// IsETagChar reports whether c may appear inside the quotes of an entity tag.
func IsETagChar(c byte) bool { return table[c]&cETag != 0 }

// IsFieldChar reports whether c may appear in a header field value: VCHAR,
// obs-text, space or horizontal tab.
func IsFieldChar(c byte) bool { return table[c]&cField != 0 }
