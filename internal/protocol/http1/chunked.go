package http1

import (
	"github.com/bulwark-proxy/bulwark/http/status"
	"github.com/bulwark-proxy/bulwark/internal/hexconv"
)

type chunkedState uint8

const (
	eChunkLength chunkedState = iota + 1
	eChunkExt
	eChunkLengthCR
	eChunkBody
	eChunkBodyEnd
	eChunkBodyCR
)

// chunkedParser decodes chunked transfer framing, yielding raw chunk data
// and signaling when the zero-size chunk terminates the body. The trailer
// section behind it is left to the owning parser, which reads it with an
// ordinary field scanner.
type chunkedParser struct {
	state        chunkedState
	lengthDigits int
	maxDigits    int
	chunkLength  uint64
}

func newChunkedParser(maxDigits int) chunkedParser {
	return chunkedParser{state: eChunkLength, maxDigits: maxDigits}
}

// parse consumes framing bytes. A non-nil chunk is a piece of body data
// (possibly one of many per feed: the caller re-invokes with extra until
// extra is empty). done signals the terminating zero-size chunk; from that
// point extra begins with the trailer section.
func (c *chunkedParser) parse(data []byte) (chunk, extra []byte, done bool, err error) {
	switch c.state {
	case eChunkLength:
		goto chunkLength
	case eChunkExt:
		goto chunkExt
	case eChunkLengthCR:
		goto chunkLengthCR
	case eChunkBody:
		goto chunkBody
	case eChunkBodyEnd:
		goto chunkBodyEnd
	case eChunkBodyCR:
		goto chunkBodyCR
	default:
		panic("unreachable code")
	}

chunkLength:
	for i := 0; i < len(data); i++ {
		switch char := data[i]; char {
		case '\r':
			if c.lengthDigits == 0 {
				return nil, nil, false, status.ErrBadChunk
			}

			data = data[i+1:]
			goto chunkLengthCR
		case ';':
			if c.lengthDigits == 0 {
				return nil, nil, false, status.ErrBadChunk
			}

			data = data[i+1:]
			goto chunkExt
		default:
			halfbyte := hexconv.Halfbyte[char]
			if halfbyte == hexconv.Invalid {
				return nil, nil, false, status.ErrBadChunk
			}

			if c.lengthDigits++; c.lengthDigits > c.maxDigits {
				return nil, nil, false, status.ErrBadChunk
			}

			c.chunkLength = (c.chunkLength << 4) | uint64(halfbyte)
		}
	}

	c.state = eChunkLength
	return nil, nil, false, nil

chunkExt:
	// chunk extensions carry no meaning for framing and are dropped, but
	// they still may not contain line-breaking garbage
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\r':
			data = data[i+1:]
			goto chunkLengthCR
		case '\n':
			return nil, nil, false, status.ErrBadChunk
		}
	}

	c.state = eChunkExt
	return nil, nil, false, nil

chunkLengthCR:
	if len(data) == 0 {
		c.state = eChunkLengthCR
		return nil, nil, false, nil
	}

	if data[0] != '\n' {
		return nil, nil, false, status.ErrBadChunk
	}

	data = data[1:]
	c.lengthDigits = 0

	if c.chunkLength == 0 {
		c.state = eChunkLength
		return nil, data, true, nil
	}

	goto chunkBody

chunkBody:
	{
		if len(data) == 0 {
			c.state = eChunkBody
			return nil, nil, false, nil
		}

		n := min(c.chunkLength, uint64(len(data)))
		c.chunkLength -= n

		if c.chunkLength == 0 {
			c.state = eChunkBodyEnd
		} else {
			c.state = eChunkBody
		}

		return data[:n], data[n:], false, nil
	}

chunkBodyEnd:
	if len(data) == 0 {
		c.state = eChunkBodyEnd
		return nil, nil, false, nil
	}

	if data[0] != '\r' {
		return nil, nil, false, status.ErrBadChunk
	}

	data = data[1:]
	goto chunkBodyCR

chunkBodyCR:
	if len(data) == 0 {
		c.state = eChunkBodyCR
		return nil, nil, false, nil
	}

	if data[0] != '\n' {
		return nil, nil, false, status.ErrBadChunk
	}

	data = data[1:]
	goto chunkLength
}
