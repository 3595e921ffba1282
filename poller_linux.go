//go:build linux

package coroio

import (
	"errors"

	"golang.org/x/sys/unix"
)

// maxFDs bounds direct array indexing of registered descriptors, the same
// approach the teacher's FastPoller uses for O(1) lookup without a map.
const maxFDs = 65536

// IOEvents is a bitmask of readiness conditions a caller may wait for.
// EPOLLERR and EPOLLHUP are always implicitly part of a registration's
// interest set (spec §4.2/§6): there is no way to mask them off.
type IOEvents uint32

const (
	EventRead IOEvents = 1 << iota
	EventWrite
	EventError
	EventHangup
)

var (
	ErrFDOutOfRange        = errors.New("coroio: fd out of range")
	ErrFDAlreadyRegistered = errors.New("coroio: fd already registered")
	ErrFDNotRegistered     = errors.New("coroio: fd not registered")
	ErrPollerClosed        = errors.New("coroio: poller closed")
)

// IOCallback is invoked, inline, from within pollIO's dispatch loop —
// always on the scheduler goroutine, never concurrently with anything
// else.
type IOCallback func(IOEvents)

type fdInfo struct {
	callback IOCallback
	events   IOEvents
	active   bool
}

// poller manages epoll-based readiness notification for level-triggered,
// non-blocking file descriptors. It is not safe for concurrent use — like
// every other piece of this runtime it is only ever touched from the
// scheduler's own goroutine.
type poller struct {
	epfd     int
	eventBuf []unix.EpollEvent
	fds      [maxFDs]fdInfo
	closed   bool
}

// defaultPollerCapacity is lua-eco's MAX_EVENTS: the epoll_wait batch size
// used per call.
const defaultPollerCapacity = 128

func newPoller(capacity int) *poller {
	if capacity <= 0 {
		capacity = defaultPollerCapacity
	}
	return &poller{eventBuf: make([]unix.EpollEvent, capacity)}
}

func (p *poller) init() error {
	if p.closed {
		return ErrPollerClosed
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	p.epfd = epfd
	return nil
}

func (p *poller) close() error {
	p.closed = true
	if p.epfd > 0 {
		return unix.Close(p.epfd)
	}
	return nil
}

// registerFD begins monitoring fd for events. EPOLLERR and EPOLLHUP are
// always added to the epoll interest mask regardless of events.
func (p *poller) registerFD(fd int, events IOEvents, cb IOCallback) error {
	if p.closed {
		return ErrPollerClosed
	}
	if fd < 0 || fd >= maxFDs {
		return ErrFDOutOfRange
	}
	if p.fds[fd].active {
		return ErrFDAlreadyRegistered
	}

	p.fds[fd] = fdInfo{callback: cb, events: events, active: true}

	ev := &unix.EpollEvent{
		Events: eventsToEpoll(events),
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		p.fds[fd] = fdInfo{}
		return err
	}
	return nil
}

func (p *poller) unregisterFD(fd int) error {
	if fd < 0 || fd >= maxFDs {
		return ErrFDOutOfRange
	}
	if !p.fds[fd].active {
		return ErrFDNotRegistered
	}
	p.fds[fd] = fdInfo{}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *poller) modifyFD(fd int, events IOEvents) error {
	if fd < 0 || fd >= maxFDs {
		return ErrFDOutOfRange
	}
	if !p.fds[fd].active {
		return ErrFDNotRegistered
	}
	p.fds[fd].events = events
	ev := &unix.EpollEvent{
		Events: eventsToEpoll(events),
		Fd:     int32(fd),
	}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

// pollIO blocks up to timeoutMs (negative means forever) and dispatches
// every ready fd's callback inline before returning. A negative return
// from dispatch is never possible; errors surface for anything other than
// EINTR, which the spec treats as "no events this tick".
func (p *poller) pollIO(timeoutMs int) (int, error) {
	if p.closed {
		return 0, ErrPollerClosed
	}
	n, err := unix.EpollWait(p.epfd, p.eventBuf, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	p.dispatchEvents(n)
	return n, nil
}

func (p *poller) dispatchEvents(n int) {
	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Fd)
		if fd < 0 || fd >= maxFDs {
			continue
		}
		info := p.fds[fd]
		if info.active && info.callback != nil {
			info.callback(epollToEvents(p.eventBuf[i].Events))
		}
	}
}

func eventsToEpoll(events IOEvents) uint32 {
	e := unix.EPOLLERR | unix.EPOLLHUP
	if events&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return uint32(e)
}

func epollToEvents(epollEvents uint32) IOEvents {
	var events IOEvents
	if epollEvents&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if epollEvents&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if epollEvents&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if epollEvents&unix.EPOLLHUP != 0 {
		events |= EventHangup
	}
	return events
}
