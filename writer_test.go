package coroio

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestWriterWriteSendsAllBytesAcrossPartialWrites(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	defer s.Close()

	r, w := mustPipe(t)
	writer, err := NewWriter(s, w)
	require.NoError(t, err)

	payload := make([]byte, 256*1024) // large enough to force >1 write(2) on a pipe
	for i := range payload {
		payload[i] = byte(i)
	}

	var n int
	var writeErr error
	done := make(chan struct{})

	s.Spawn(func(tsk *Task) {
		n, writeErr = writer.Write(tsk, payload, time.Second)
		close(done)
	})

	// drain the pipe concurrently so the writer never blocks forever on a
	// full pipe buffer.
	go func() {
		buf := make([]byte, 4096)
		for {
			if _, err := unix.Read(r, buf); err != nil {
				return
			}
			select {
			case <-done:
				return
			default:
			}
		}
	}()

	require.NoError(t, s.Loop())
	require.NoError(t, writeErr)
	require.Equal(t, len(payload), n)
}

func TestWriterSendfileFDCopiesWholeFile(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	defer s.Close()

	src, err := os.CreateTemp(t.TempDir(), "coroio-sendfile-*")
	require.NoError(t, err)
	content := []byte("the quick brown fox jumps over the lazy dog")
	_, err = src.Write(content)
	require.NoError(t, err)
	require.NoError(t, src.Close())

	srcFD, err := unix.Open(src.Name(), unix.O_RDONLY, 0)
	require.NoError(t, err)
	defer unix.Close(srcFD)

	r, w := mustPipe(t)
	writer, err := NewWriter(s, w)
	require.NoError(t, err)

	var n int
	var sendErr error
	s.Spawn(func(tsk *Task) {
		n, sendErr = writer.SendfileFD(tsk, srcFD, 0, len(content), time.Second)
	})

	require.NoError(t, s.Loop())
	require.NoError(t, sendErr)
	require.Equal(t, len(content), n)

	got := make([]byte, len(content))
	_, err = unix.Read(r, got)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestWriterSendfileFDHonorsNonZeroOffset(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	defer s.Close()

	src, err := os.CreateTemp(t.TempDir(), "coroio-sendfile-offset-*")
	require.NoError(t, err)
	content := []byte("0123456789abcdef")
	_, err = src.Write(content)
	require.NoError(t, err)
	require.NoError(t, src.Close())

	srcFD, err := unix.Open(src.Name(), unix.O_RDONLY, 0)
	require.NoError(t, err)
	defer unix.Close(srcFD)

	r, w := mustPipe(t)
	writer, err := NewWriter(s, w)
	require.NoError(t, err)

	const skip = 10
	want := content[skip:]
	var n int
	var sendErr error
	s.Spawn(func(tsk *Task) {
		n, sendErr = writer.SendfileFD(tsk, srcFD, skip, len(want), time.Second)
	})

	require.NoError(t, s.Loop())
	require.NoError(t, sendErr)
	require.Equal(t, len(want), n)

	got := make([]byte, len(want))
	_, err = unix.Read(r, got)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
