//go:build linux

package coroio

import (
	"errors"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// closeFD, readFD and writeFD wrap the raw syscalls used throughout this
// package for non-blocking fd I/O.
func closeFD(fd int) error {
	return unix.Close(fd)
}

func readFD(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

func writeFD(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}

// sendfileFD copies up to count bytes from src starting at *offset into
// dst, the same zero-copy primitive lua-eco's sendfile binding wraps.
// offset is advanced by the number of bytes actually transferred; a nil
// offset reads from src's current file position.
func sendfileFD(dst, src int, offset *int64, count int) (int, error) {
	return unix.Sendfile(dst, src, offset, count)
}

var errUnsupportedConn = errors.New("coroio: connection does not expose a raw fd")

// dupFD duplicates the file descriptor underlying conn, so the caller owns
// an independent descriptor it may close without affecting conn. Grounded
// on the gaio transport's dupconn helper, which uses SyscallConn().Control
// to guarantee the fd stays valid for the duration of syscall.Dup.
func dupFD(conn net.Conn) (int, error) {
	sc, ok := conn.(interface {
		SyscallConn() (syscall.RawConn, error)
	})
	if !ok {
		return -1, errUnsupportedConn
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}

	var newfd int
	var dupErr error
	ctrlErr := rc.Control(func(fd uintptr) {
		newfd, dupErr = syscall.Dup(int(fd))
	})
	if ctrlErr != nil {
		return -1, ctrlErr
	}
	if dupErr != nil {
		return -1, dupErr
	}
	return newfd, nil
}
