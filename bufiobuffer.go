package coroio

import "bytes"

// BufIOBuffer is a fixed-capacity read/fill buffer with r/w cursors,
// ported from lua-eco's bufio.c. Unlike [FIFOBuffer] it exposes its tail
// directly (via [BufIOBuffer.Tail]/[BufIOBuffer.Add]) so a caller can fill
// it with a raw read(2) into the buffer's own storage. Both cursors reset
// to zero once every unread byte has been consumed; to reclaim space while
// unread bytes remain, callers compact explicitly with [BufIOBuffer.Slide].
type BufIOBuffer struct {
	data []byte
	r, w int
}

// NewBufIOBuffer allocates a buffer with the given capacity; capacity<=0
// uses bufio.c's own default of 4096.
func NewBufIOBuffer(capacity int) *BufIOBuffer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &BufIOBuffer{data: make([]byte, capacity)}
}

// Size returns the buffer's total capacity.
func (b *BufIOBuffer) Size() int { return len(b.data) }

// Room is the capacity left for filling, size-w.
func (b *BufIOBuffer) Room() int { return len(b.data) - b.w }

// Length returns the number of unread bytes, w-r.
func (b *BufIOBuffer) Length() int { return b.w - b.r }

// Tail returns the writable slice beyond w, for a caller that wants to
// read(2) directly into the buffer's storage before calling
// [BufIOBuffer.Add] to record how much was written.
func (b *BufIOBuffer) Tail() []byte { return b.data[b.w:] }

// Add advances w by n, after a caller has written n bytes into the slice
// returned by Tail. Like the C binding's add(), its return value (the new
// w) is not meaningful on its own and exists only for call-site
// convenience — callers should not rely on it for anything beyond that.
func (b *BufIOBuffer) Add(n int) int {
	b.w += n
	return b.w
}

// Fill reads once from fd into the buffer's tail, advancing w by however
// many bytes were read. Returns ErrBufferFull if there is no room at all;
// otherwise returns the number of bytes read (0 at EOF) or an
// [ErrnoError].
func (b *BufIOBuffer) Fill(fd int) (int, error) {
	room := b.Room()
	if room == 0 {
		return 0, ErrBufferFull
	}
	n, err := readFD(fd, b.data[b.w:])
	if err != nil {
		return 0, &ErrnoError{Op: "read", Errno: err}
	}
	b.w += n
	return n, nil
}

// Read returns up to n unread bytes (n<0 means "all of it") and advances
// r past them, compacting to (0,0) if the buffer is now fully drained.
// The returned slice aliases the buffer's storage and is only valid until
// the next Fill/Add/Slide call.
func (b *BufIOBuffer) Read(n int) []byte {
	blen := b.Length()
	if n < 0 || n > blen {
		n = blen
	}
	out := b.data[b.r : b.r+n]
	b.skip(n)
	return out
}

// Peek returns up to length bytes without consuming them.
func (b *BufIOBuffer) Peek(length int) []byte {
	blen := b.Length()
	if length > blen {
		length = blen
	}
	return b.data[b.r : b.r+length]
}

// Skip discards up to n unread bytes, returning how many were actually
// skipped.
func (b *BufIOBuffer) Skip(n int) int {
	blen := b.Length()
	if n > blen {
		n = blen
	}
	b.skip(n)
	return n
}

func (b *BufIOBuffer) skip(n int) {
	b.r += n
	if b.r == b.w {
		b.r, b.w = 0, 0
	}
}

// Index returns the offset of the first occurrence of c in the unread
// region, or -1 if not found.
func (b *BufIOBuffer) Index(c byte) int {
	data := b.data[b.r:b.w]
	i := bytes.IndexByte(data, c)
	return i
}

// Find returns the offset of the first occurrence of needle in the
// unread region, or -1 if not found.
func (b *BufIOBuffer) Find(needle []byte) int {
	data := b.data[b.r:b.w]
	return bytes.Index(data, needle)
}

// Slide compacts the unread region to the front of the buffer, freeing up
// room at the tail without discarding any unread data.
func (b *BufIOBuffer) Slide() {
	if b.r > 0 {
		copy(b.data, b.data[b.r:b.w])
		b.w -= b.r
		b.r = 0
	}
}
