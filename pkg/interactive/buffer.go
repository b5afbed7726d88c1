package interactive

import "sync"

// outputBuffer is an append-only byte buffer safe for concurrent use.
// The drain goroutine appends, pollers snapshot. Bytes are never
// rewritten or reordered, so any snapshot is a prefix of every later
// snapshot.
type outputBuffer struct {
	mu  sync.RWMutex
	buf []byte
}

func newOutputBuffer() *outputBuffer {
	return &outputBuffer{}
}

// Append copies p onto the end of the buffer.
func (b *outputBuffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.mu.Lock()
	b.buf = append(b.buf, p...)
	b.mu.Unlock()
}

// Len returns the number of bytes accumulated so far.
func (b *outputBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.buf)
}

// String returns a copy of the accumulated output.
func (b *outputBuffer) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.buf)
}

// Since returns a copy of the bytes appended after offset. It is used
// by the streaming endpoint to push increments without re-sending the
// whole buffer.
func (b *outputBuffer) Since(offset int) []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if offset < 0 || offset >= len(b.buf) {
		return nil
	}
	out := make([]byte, len(b.buf)-offset)
	copy(out, b.buf[offset:])
	return out
}
