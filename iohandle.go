package coroio

import (
	"time"

	"golang.org/x/sys/unix"
)

// IoHandle wraps one non-blocking file descriptor with the scheduler's
// readiness-wait primitive. At most one task may be waiting on a handle at
// a time (spec §4.5); a second concurrent Wait is a misuse error, not
// merged or queued.
type IoHandle struct {
	sched *Scheduler
	fd    int

	waiter      *Task
	timer       *timer
	isTimeout   bool
	isCanceled  bool
	registered  bool
	pendingMask IOEvents
}

// NewIoHandle wraps fd, switching it to non-blocking mode. The caller
// retains ownership of fd; [IoHandle] never closes it.
func NewIoHandle(sched *Scheduler, fd int) (*IoHandle, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, &ErrnoError{Op: "setnonblock", Errno: err}
	}
	return &IoHandle{sched: sched, fd: fd}, nil
}

// FD returns the wrapped file descriptor.
func (h *IoHandle) FD() int { return h.fd }

// ReadyEvents returns the event mask observed by the most recent
// successful [IoHandle.Wait] (zero if the last Wait ended in timeout or
// cancellation, or none has completed yet).
func (h *IoHandle) ReadyEvents() IOEvents { return h.pendingMask }

// Wait suspends the calling task t until fd becomes ready for one of the
// requested events (EPOLLERR/EPOLLHUP are always implicitly included),
// the timeout elapses, or the wait is canceled via [IoHandle.Cancel].
// timeout<=0 means wait indefinitely. Returns (true, nil) on readiness,
// (false, ErrTimeout) on timeout, (false, ErrCanceled) on cancellation.
func (h *IoHandle) Wait(t *Task, events IOEvents, timeout time.Duration) (bool, error) {
	if events == 0 {
		return false, &MisuseError{Message: "coroio: Wait called with an empty event mask"}
	}
	if h.waiter != nil {
		return false, &MisuseError{Cause: ErrAlreadyWaiting, Message: reasonAlreadyWait}
	}

	h.waiter = t
	h.isTimeout = false
	h.isCanceled = false
	h.pendingMask = 0

	if err := h.sched.poller.registerFD(h.fd, events, h.onReady); err != nil {
		h.waiter = nil
		return false, err
	}
	h.registered = true

	if timeout > 0 {
		h.timer = h.sched.timerAlloc()
		h.sched.timerStart(h.timer, timeout.Seconds(), timerHolder{kind: holderIoHandle, handle: h})
	}

	t.suspend()

	switch {
	case h.isCanceled:
		return false, ErrCanceled
	case h.isTimeout:
		return false, ErrTimeout
	default:
		return true, nil
	}
}

// Cancel wakes a pending Wait early with [ErrCanceled]. It is a no-op if
// nothing is currently waiting.
func (h *IoHandle) Cancel() {
	if h.waiter == nil {
		return
	}
	h.isCanceled = true
	t := h.detach()
	h.sched.resume(t, nil)
}

// fireTimeout is called by the scheduler's timer drain when this handle's
// armed timer expires. The timer itself has already been popped and freed
// by the caller.
func (h *IoHandle) fireTimeout() {
	if h.waiter == nil {
		return
	}
	h.isTimeout = true
	h.timer = nil // already freed by the caller
	t := h.detach()
	h.sched.resume(t, nil)
}

// onReady is the poller callback invoked inline when fd becomes ready.
func (h *IoHandle) onReady(events IOEvents) {
	if events&(EventError|EventHangup) != 0 {
		h.sched.logPollError(h.fd, events)
	}
	if h.waiter == nil {
		return
	}
	h.pendingMask = events
	t := h.detach()
	h.sched.resume(t, nil)
}

// detach unregisters fd from the poller, releases any armed timer, and
// clears the waiter, returning the task that was waiting.
func (h *IoHandle) detach() *Task {
	if h.registered {
		_ = h.sched.poller.unregisterFD(h.fd)
		h.registered = false
	}
	if h.timer != nil {
		h.sched.timerFree(h.timer)
		h.timer = nil
	}
	t := h.waiter
	h.waiter = nil
	return t
}
