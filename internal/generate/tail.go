package generate

// tailBuffer keeps only the most recent capacity bytes of everything written
// to it. Section prompts need a bounded slice of prior output for
// continuity; materializing the full accumulated document would grow the
// prompt without bound.
type tailBuffer struct {
	capacity int
	buf      []byte
}

func newTailBuffer(capacity int) *tailBuffer {
	return &tailBuffer{capacity: capacity}
}

// WriteString appends s, truncating from the front to stay within capacity
func (b *tailBuffer) WriteString(s string) {
	if b.capacity <= 0 {
		return
	}
	if len(s) >= b.capacity {
		b.buf = append(b.buf[:0], s[len(s)-b.capacity:]...)
		return
	}

	b.buf = append(b.buf, s...)
	if overflow := len(b.buf) - b.capacity; overflow > 0 {
		copy(b.buf, b.buf[overflow:])
		b.buf = b.buf[:b.capacity]
	}
}

// String returns the buffered tail
func (b *tailBuffer) String() string {
	return string(b.buf)
}
