// Package hpack implements the header compression of RFC 7541: prefixed
// integers, the static and dynamic tables and field-line decoding.
package hpack

import (
	"github.com/bulwark-proxy/bulwark/http/status"
	"github.com/flrdv/uf"
)

// Decoder decompresses header blocks of one connection. The dynamic table is
// connection state, so a single Decoder must see every header block of its
// connection in order.
type Decoder struct {
	table dynamicTable
	// maxCapacity bounds capacity values the peer may switch the dynamic
	// table to.
	maxCapacity uint32
}

func NewDecoder(capacity uint32) *Decoder {
	d := &Decoder{maxCapacity: capacity}
	d.table.capacity = capacity

	return d
}

// Decode walks a complete header block, reporting each field through emit.
// Emitted name and value slices are only valid during the call: they may
// point into the block itself or into dynamic table storage which a later
// block can evict.
func (d *Decoder) Decode(block []byte, emit func(name, value []byte) error) error {
	for len(block) > 0 {
		var (
			name, value []byte
			err         error
		)

		switch b := block[0]; {
		case b&0x80 != 0:
			// indexed field line
			index, n, err := DecodeInt(block, 7)
			if err != nil {
				return err
			}

			entry, found := d.table.lookup(index)
			if !found {
				return status.ErrCompression
			}

			block = block[n:]
			if err := emit(uf.S2B(entry.name), uf.S2B(entry.value)); err != nil {
				return err
			}

			continue
		case b&0xc0 == 0x40:
			// literal with incremental indexing
			name, value, block, err = d.literal(block, 6)
			if err != nil {
				return err
			}

			d.table.insert(string(name), string(value))
		case b&0xe0 == 0x20:
			// dynamic table capacity update
			capacity, n, err := DecodeInt(block, 5)
			if err != nil {
				return err
			}

			if capacity > uint64(d.maxCapacity) {
				return status.ErrCompression
			}

			d.table.setCapacity(uint32(capacity))
			block = block[n:]
			continue
		default:
			// literal without indexing (0000) or never indexed (0001),
			// which only differ in forwarding semantics
			name, value, block, err = d.literal(block, 4)
			if err != nil {
				return err
			}
		}

		if err := emit(name, value); err != nil {
			return err
		}
	}

	return nil
}

// literal decodes a literal field line: an indexed or literal name followed
// by a literal value.
func (d *Decoder) literal(block []byte, prefix uint8) (name, value, rest []byte, err error) {
	index, n, err := DecodeInt(block, prefix)
	if err != nil {
		return nil, nil, nil, err
	}

	rest = block[n:]

	if index == 0 {
		name, rest, err = readString(rest)
		if err != nil {
			return nil, nil, nil, err
		}
	} else {
		entry, found := d.table.lookup(index)
		if !found {
			return nil, nil, nil, status.ErrCompression
		}

		name = uf.S2B(entry.name)
	}

	value, rest, err = readString(rest)
	if err != nil {
		return nil, nil, nil, err
	}

	return name, value, rest, nil
}

// readString decodes a string literal. Huffman-coded strings are rejected
// for now.
// TODO: decode Huffman-coded strings instead of rejecting them.
func readString(b []byte) (str, rest []byte, err error) {
	if len(b) == 0 {
		return nil, nil, status.ErrCompression
	}

	huffman := b[0]&0x80 != 0

	length, n, err := DecodeInt(b, 7)
	if err != nil {
		return nil, nil, err
	}

	rest = b[n:]
	if length > uint64(len(rest)) {
		return nil, nil, status.ErrCompression
	}

	if huffman {
		return nil, nil, status.ErrCompression
	}

	return rest[:length], rest[length:], nil
}
