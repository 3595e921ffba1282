package coroio

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// WriteFn overrides how a Writer pushes bytes to the wire, mirroring
// [ReadFn]'s EAGAIN convention: (-1, nil) means "would block".
type WriteFn func(ctx context.Context, fd int, buf []byte) (int, error)

// Writer layers the partial-write retry loop, timeout/cancellation
// handling, and zero-copy sendfile over an [IoHandle].
type Writer struct {
	handle  *IoHandle
	writeFn WriteFn
	ctx     context.Context
}

// NewWriter wraps fd for writing.
func NewWriter(sched *Scheduler, fd int) (*Writer, error) {
	h, err := NewIoHandle(sched, fd)
	if err != nil {
		return nil, err
	}
	return &Writer{handle: h}, nil
}

// WithWriteFn overrides the transport used for the underlying fd.
func (w *Writer) WithWriteFn(fn WriteFn, ctx context.Context) *Writer {
	w.writeFn = fn
	if ctx == nil {
		ctx = context.Background()
	}
	w.ctx = ctx
	return w
}

// Handle returns the underlying [IoHandle].
func (w *Writer) Handle() *IoHandle { return w.handle }

func (w *Writer) doWrite(buf []byte) (int, error) {
	if w.writeFn != nil {
		ctx := w.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		return w.writeFn(ctx, w.handle.fd, buf)
	}
	n, err := writeFD(w.handle.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return -1, nil
		}
		return 0, &ErrnoError{Op: "write", Errno: err}
	}
	return n, nil
}

// Write writes all of data, retrying across partial writes and EAGAIN
// until the whole buffer is sent or timeout elapses (timeout<=0 waits
// indefinitely). data stays pinned across any suspension.
func (w *Writer) Write(t *Task, data []byte, timeout time.Duration) (int, error) {
	total := 0
	for total < len(data) {
		n, err := w.doWrite(data[total:])
		if err != nil {
			return total, err
		}
		if n == -1 {
			if _, werr := w.handle.Wait(t, EventWrite, timeout); werr != nil {
				return total, werr
			}
			continue
		}
		total += n
	}
	return total, nil
}

// sendfileSource is a file descriptor sendfile reads from, closed exactly
// once regardless of whether Sendfile returns via success, timeout, or
// error — the sync.Once matters because both the timeout path and the
// normal completion path lead through the same deferred close.
type sendfileSource struct {
	fd        int
	closeOnce sync.Once
	closeFn   func() error
}

func (s *sendfileSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.closeFn != nil {
			err = s.closeFn()
		}
	})
	return err
}

// SendfileFD zero-copies up to count bytes from src (a raw, already-open
// fd owned by the caller) to w's fd, starting at offset bytes into src —
// spec §4.7's wr:sendfile(path, offset, len), grounded in
// original_source/eco.c:1105. src is never closed by this call.
func (w *Writer) SendfileFD(t *Task, src int, offset int64, count int, timeout time.Duration) (int, error) {
	return w.sendfile(t, &sendfileSource{fd: src}, offset, count, timeout)
}

// SendfileConn zero-copies up to count bytes from conn, starting at offset
// bytes into it, to w's fd. conn's underlying descriptor is duplicated
// (via [dupFD]) so this call owns an independent fd, closed exactly once
// when the transfer finishes.
func (w *Writer) SendfileConn(t *Task, conn net.Conn, offset int64, count int, timeout time.Duration) (int, error) {
	fd, err := dupFD(conn)
	if err != nil {
		return 0, err
	}
	src := &sendfileSource{fd: fd, closeFn: func() error { return closeFD(fd) }}
	return w.sendfile(t, src, offset, count, timeout)
}

func (w *Writer) sendfile(t *Task, src *sendfileSource, offset int64, count int, timeout time.Duration) (int, error) {
	defer src.Close()

	var total int
	for total < count {
		n, err := sendfileFD(w.handle.fd, src.fd, &offset, count-total)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				if _, werr := w.handle.Wait(t, EventWrite, timeout); werr != nil {
					return total, werr
				}
				continue
			}
			return total, &ErrnoError{Op: "sendfile", Errno: err}
		}
		if n == 0 {
			break // source exhausted
		}
		total += n
	}
	return total, nil
}
