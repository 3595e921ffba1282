package coroio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestReaderReadReturnsOnlyTheFirstSuccessfulReadEvenIfShortOfExpected(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	defer s.Close()

	r, w := mustPipe(t)
	reader, err := NewReader(s, r)
	require.NoError(t, err)

	var got []byte
	var readErr error
	s.Spawn(func(tsk *Task) {
		got, readErr = reader.Read(tsk, 5, time.Second)
	})

	s.Spawn(func(tsk *Task) {
		s.Sleep(tsk, 5*time.Millisecond)
		_, _ = unix.Write(w, []byte("hel"))
		// a second write arriving later must not be folded into the Read
		// above: it already returned after the first successful read.
		s.Sleep(tsk, 5*time.Millisecond)
		_, _ = unix.Write(w, []byte("lo"))
	})

	require.NoError(t, s.Loop())
	require.NoError(t, readErr)
	require.Equal(t, "hel", string(got))
}

func TestReaderReadRejectsNonPositiveExpectedAsMisuse(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	defer s.Close()

	r, _ := mustPipe(t)
	reader, err := NewReader(s, r)
	require.NoError(t, err)

	var readErr error
	s.Spawn(func(tsk *Task) {
		_, readErr = reader.Read(tsk, 0, time.Second)
	})
	require.NoError(t, s.Loop())

	var misuse *MisuseError
	require.ErrorAs(t, readErr, &misuse)
}

func TestReaderReadReturnsErrEOFOnClosedWriteEnd(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	defer s.Close()

	r, w := mustPipe(t)
	reader, err := NewReader(s, r)
	require.NoError(t, err)

	var readErr error
	s.Spawn(func(tsk *Task) {
		_, readErr = reader.Read(tsk, 10, time.Second)
	})

	s.Spawn(func(tsk *Task) {
		s.Sleep(tsk, 5*time.Millisecond)
		_ = unix.Close(w)
	})

	require.NoError(t, s.Loop())
	require.ErrorIs(t, readErr, ErrEOF)
}

func TestReaderReadIntoBufferFillsTail(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	defer s.Close()

	r, w := mustPipe(t)
	reader, err := NewReader(s, r)
	require.NoError(t, err)

	buf := NewBufIOBuffer(64)
	var n int
	var readErr error
	s.Spawn(func(tsk *Task) {
		n, readErr = reader.ReadIntoBuffer(tsk, buf, 4, time.Second)
	})
	s.Spawn(func(tsk *Task) {
		s.Sleep(tsk, 5*time.Millisecond)
		_, _ = unix.Write(w, []byte("data"))
	})

	require.NoError(t, s.Loop())
	require.NoError(t, readErr)
	require.Equal(t, 4, n)
	require.Equal(t, "data", string(buf.Read(-1)))
}

func TestReaderReadAllAccumulatesUntilEOF(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	defer s.Close()

	r, w := mustPipe(t)
	reader, err := NewReader(s, r)
	require.NoError(t, err)

	var out *FIFOBuffer
	var readErr error
	s.Spawn(func(tsk *Task) {
		out, readErr = reader.ReadAll(tsk, time.Second)
	})
	s.Spawn(func(tsk *Task) {
		s.Sleep(tsk, 5*time.Millisecond)
		_, _ = unix.Write(w, []byte("abc"))
		s.Sleep(tsk, 5*time.Millisecond)
		_, _ = unix.Write(w, []byte("def"))
		_ = unix.Close(w)
	})

	require.NoError(t, s.Loop())
	require.NoError(t, readErr)
	require.Equal(t, "abcdef", string(out.Read(-1)))
}
