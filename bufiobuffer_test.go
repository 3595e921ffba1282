package coroio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufIOBufferDefaultSize(t *testing.T) {
	b := NewBufIOBuffer(0)
	require.Equal(t, 4096, b.Size())
}

func TestBufIOBufferTailAddRead(t *testing.T) {
	b := NewBufIOBuffer(16)
	require.Equal(t, 16, b.Room())

	copy(b.Tail(), []byte("hi"))
	b.Add(2)
	require.Equal(t, 2, b.Length())
	require.Equal(t, 14, b.Room())

	require.Equal(t, []byte("hi"), b.Read(-1))
	require.Equal(t, 0, b.Length())
	// fully drained resets r/w to 0, freeing the whole capacity again.
	require.Equal(t, 16, b.Room())
}

func TestBufIOBufferPeekDoesNotConsume(t *testing.T) {
	b := NewBufIOBuffer(16)
	copy(b.Tail(), []byte("abcd"))
	b.Add(4)

	require.Equal(t, []byte("ab"), b.Peek(2))
	require.Equal(t, 4, b.Length())
}

func TestBufIOBufferSkip(t *testing.T) {
	b := NewBufIOBuffer(16)
	copy(b.Tail(), []byte("abcd"))
	b.Add(4)

	n := b.Skip(2)
	require.Equal(t, 2, n)
	require.Equal(t, []byte("cd"), b.Read(-1))
}

func TestBufIOBufferIndexAndFind(t *testing.T) {
	b := NewBufIOBuffer(32)
	copy(b.Tail(), []byte("GET / HTTP/1.1\r\n"))
	b.Add(16)

	require.Equal(t, 3, b.Index(' '))
	require.Equal(t, 14, b.Find([]byte("\r\n")))
	require.Equal(t, -1, b.Find([]byte("nope")))
}

func TestBufIOBufferSlideCompactsToFront(t *testing.T) {
	b := NewBufIOBuffer(8)
	copy(b.Tail(), []byte("abcdefgh"))
	b.Add(8)
	b.Skip(6)
	require.Equal(t, 0, b.Room())

	b.Slide()
	require.Equal(t, 6, b.Room())
	require.Equal(t, []byte("gh"), b.Read(-1))
}

func TestBufIOBufferFillReportsBufferFull(t *testing.T) {
	b := NewBufIOBuffer(4)
	copy(b.Tail(), []byte("abcd"))
	b.Add(4)

	_, err := b.Fill(0)
	require.ErrorIs(t, err, ErrBufferFull)
}
