//go:build linux

package coroio

import (
	"golang.org/x/sys/unix"
)

// createWakeFD creates an eventfd used to break epoll_wait out of a
// blocking call, so [Scheduler.Unloop] can be invoked safely from a
// goroutine other than the one running [Scheduler.Loop].
func createWakeFD() (int, error) {
	return unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
}

func closeWakeFD(fd int) error {
	if fd < 0 {
		return nil
	}
	return unix.Close(fd)
}

// drainWakeFD consumes any pending wake notifications so the eventfd
// doesn't immediately re-signal readiness.
func drainWakeFD(fd int) {
	var buf [8]byte
	for {
		if _, err := unix.Read(fd, buf[:]); err != nil {
			return
		}
	}
}

// signalWakeFD posts one wake-up. Writing 8 bytes to an eventfd is the
// documented way to increment its counter; it is safe to call concurrently
// with the scheduler's own epoll_wait on the same fd.
func signalWakeFD(fd int) error {
	var buf [8]byte
	buf[0] = 1
	_, err := unix.Write(fd, buf[:])
	return err
}
