// Package fieldstr implements segmented strings: protocol elements referenced
// as an ordered sequence of byte spans instead of one contiguous buffer.
// A token split by the transport across multiple deliveries is represented
// without gluing the halves together; each span additionally carries flags
// describing its role within the element.
package fieldstr

import (
	"bytes"
	"iter"

	"github.com/bulwark-proxy/bulwark/internal/strutil"
	"github.com/flrdv/uf"
)

type Flags uint8

const (
	// Name marks spans forming a field name.
	Name Flags = 1 << iota
	// Value marks spans forming a field value (or one item of a list-valued
	// field). Spans between two Value groups act as item boundaries.
	Value
	// Separator marks delimiters: colons, commas and surrounding whitespace.
	Separator
	// WeakPrefix marks the W/ prefix of a weak entity tag.
	WeakPrefix
)

type Chunk struct {
	Data  []byte
	Flags Flags
}

// String is an ordered sequence of chunks. Concatenated in order, chunk data
// reproduces the element exactly as it appeared on the wire. The zero value
// is an empty string ready for use.
//
// Chunks borrow the memory they point into. Whoever assembles a String from
// transport buffers is responsible for re-anchoring the data into storage
// which lives at least as long as the String itself.
type String struct {
	chunks []Chunk
	length int
}

// Append adds a span with the given flags. Empty spans are dropped.
func (s *String) Append(span []byte, flags Flags) {
	if len(span) == 0 {
		return
	}

	s.chunks = append(s.chunks, Chunk{Data: span, Flags: flags})
	s.length += len(span)
}

// Len returns the total length in bytes.
func (s *String) Len() int {
	return s.length
}

// Empty reports whether the string contains no bytes.
func (s *String) Empty() bool {
	return s.length == 0
}

// ChunkCount returns the number of chunks the string consists of.
func (s *String) ChunkCount() int {
	return len(s.chunks)
}

// Chunks iterates the chunks in wire order. The sequence is restartable.
func (s *String) Chunks() iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		for _, c := range s.chunks {
			if !yield(c) {
				return
			}
		}
	}
}

// Equal compares the segmented string against flat bytes without
// materializing it.
func (s *String) Equal(flat []byte) bool {
	if s.length != len(flat) {
		return false
	}

	for _, c := range s.chunks {
		if !bytes.Equal(c.Data, flat[:len(c.Data)]) {
			return false
		}

		flat = flat[len(c.Data):]
	}

	return true
}

// EqualString is Equal over a string, avoiding a conversion copy.
func (s *String) EqualString(str string) bool {
	return s.Equal(uf.S2B(str))
}

// EqualFold compares against a string case-insensitively (ASCII).
func (s *String) EqualFold(str string) bool {
	if s.length != len(str) {
		return false
	}

	for _, c := range s.chunks {
		if !strutil.EqualFold(uf.B2S(c.Data), str[:len(c.Data)]) {
			return false
		}

		str = str[len(c.Data):]
	}

	return true
}

// Compare performs a bytewise comparison of two segmented strings chunk by
// chunk, reporting -1, 0 or 1 as bytes.Compare does. Neither side is
// materialized.
func (s *String) Compare(other *String) int {
	var (
		a, b   []byte
		ai, bi int
	)

	for {
		for len(a) == 0 {
			if ai == len(s.chunks) {
				if bi == len(other.chunks) && len(b) == 0 {
					return 0
				}

				return -1
			}

			a = s.chunks[ai].Data
			ai++
		}

		for len(b) == 0 {
			if bi == len(other.chunks) {
				return 1
			}

			b = other.chunks[bi].Data
			bi++
		}

		n := min(len(a), len(b))
		if c := bytes.Compare(a[:n], b[:n]); c != 0 {
			return c
		}

		a, b = a[n:], b[n:]
	}
}

// Values iterates the logical items of a list-valued element: each maximal
// run of consecutive Value-flagged chunks yields one sub-string, while
// separator and whitespace chunks in between are skipped. An element holding
// a single plain value yields it once.
func (s *String) Values() iter.Seq[String] {
	return func(yield func(String) bool) {
		i := 0

		for i < len(s.chunks) {
			for i < len(s.chunks) && s.chunks[i].Flags&Value == 0 {
				i++
			}

			if i == len(s.chunks) {
				return
			}

			begin := i
			length := 0
			for i < len(s.chunks) && s.chunks[i].Flags&Value != 0 {
				length += len(s.chunks[i].Data)
				i++
			}

			if !yield(String{chunks: s.chunks[begin:i], length: length}) {
				return
			}
		}
	}
}

// AppendList splits a raw list-valued span (e.g. a comma-separated header
// value) into alternating Value and Separator chunks. Whitespace around items
// is attributed to the separators, so iterating Values afterwards yields the
// items already trimmed.
func (s *String) AppendList(span []byte) {
	for len(span) > 0 {
		item := span
		rest := []byte(nil)
		if comma := bytes.IndexByte(span, ','); comma != -1 {
			item, rest = span[:comma], span[comma+1:]
		}

		trimmed := strutil.StripWS(item)
		if len(trimmed) == 0 {
			s.Append(item, Separator)
		} else {
			lead := item[:len(item)-len(strutil.LStripWS(item))]
			trail := item[len(lead)+len(trimmed):]
			s.Append(lead, Separator)
			s.Append(trimmed, Value)
			s.Append(trail, Separator)
		}

		if rest != nil {
			comma := span[len(item) : len(item)+1]
			s.Append(comma, Separator)
		}

		span = rest
	}
}

// String materializes the segmented string. Meant for diagnostics and tests,
// not for hot paths.
func (s *String) String() string {
	if len(s.chunks) == 1 {
		return string(s.chunks[0].Data)
	}

	flat := make([]byte, 0, s.length)
	for _, c := range s.chunks {
		flat = append(flat, c.Data...)
	}

	return uf.B2S(flat)
}

// Reset empties the string, retaining the chunk storage.
func (s *String) Reset() {
	s.chunks = s.chunks[:0]
	s.length = 0
}
