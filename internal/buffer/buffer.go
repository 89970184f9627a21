package buffer

// Buffer is a quasi-arena hosting non-interrelated byte sequences in a single
// place. Data is written streamingly into a current segment; finishing the
// segment yields its bytes and starts a new one. Segments returned earlier
// stay valid even if the underlying memory is re-allocated by further growth,
// as the old backing array is kept referenced by them.
type Buffer struct {
	memory  []byte
	begin   int
	maxSize int
}

func New(initialSize, maxSize int) *Buffer {
	return &Buffer{
		memory:  make([]byte, 0, initialSize),
		maxSize: maxSize,
	}
}

// Append writes data into the current segment, returning false if the total
// amount of buffered bytes would exceed the limit. The data is discarded then.
func (b *Buffer) Append(data []byte) (ok bool) {
	if len(b.memory)+len(data) > b.maxSize {
		return false
	}

	b.memory = append(b.memory, data...)
	return true
}

// AppendByte writes a single byte, checking whether it won't exceed the limit.
func (b *Buffer) AppendByte(c byte) (ok bool) {
	if len(b.memory)+1 > b.maxSize {
		return false
	}

	b.memory = append(b.memory, c)
	return true
}

// Copy stores a standalone copy of the span, leaving the current segment
// intact. The returned slice is owned by the buffer and stays stable until
// Clear. Returns nil if the limit is exceeded.
//
// Must not be called with an unfinished segment in progress, as the copied
// span would otherwise be glued to it.
func (b *Buffer) Copy(span []byte) []byte {
	if !b.Append(span) {
		return nil
	}

	return b.Finish()
}

// SegmentLength returns a number of bytes in the current segment.
func (b *Buffer) SegmentLength() int {
	return len(b.memory) - b.begin
}

// Trunc truncates the last n bytes of the current segment, guaranteeing that
// data of previous segments stays intact.
func (b *Buffer) Trunc(n int) {
	if seglen := b.SegmentLength(); n > seglen {
		n = seglen
	}

	b.memory = b.memory[:len(b.memory)-n]
}

// Preview returns the current segment without finishing it.
func (b *Buffer) Preview() []byte {
	return b.memory[b.begin:]
}

// Finish completes the current segment, returning its value.
func (b *Buffer) Finish() []byte {
	segment := b.memory[b.begin:]
	b.begin = len(b.memory)

	return segment
}

// Discard drops the current segment.
func (b *Buffer) Discard() {
	b.memory = b.memory[:b.begin]
}

// Clear resets the pointers, so old values may be overridden by new ones.
// All previously returned segments are invalidated.
func (b *Buffer) Clear() {
	b.begin = 0
	b.memory = b.memory[:0]
}
