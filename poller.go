// poller.go documents the readiness-notification layer.
//
// # I/O registration
//
// registerFD/unregisterFD/modifyFD and pollIO (poller_linux.go) wrap Linux
// epoll in level-triggered mode. EPOLLERR and EPOLLHUP are always part of
// the interest set — a registration cannot opt out of error/hangup
// notification.
//
// # Safety
//
// The poller is touched only from the scheduler's own goroutine. Always
// unregister an fd before closing it, to avoid stale event delivery after
// descriptor recycling.
package coroio
