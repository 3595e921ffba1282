package coroio

import (
	"runtime/debug"
	"sync/atomic"
	"time"
)

// Scheduler is the single-threaded, cooperative runtime: it owns the
// readiness poller, the ordered timer list, and the registry of live
// tasks, and drives them all from the one goroutine that calls [Loop].
// Every other type in this package (Task, IoHandle, Reader, Writer, …) is
// only ever touched from that same goroutine — the "exactly one of
// {scheduler, a task} runs at any instant" invariant spec §5 describes.
type Scheduler struct {
	logger    Logger
	panicHook PanicHook
	errLimit  *errorRateLimiter

	poller *poller

	timers         timerHeap
	timerFreeList  []*timer
	timerSeq       uint64
	timerCacheSize int

	taskSeq  uint64
	registry *taskRegistry
	yieldCh  chan yieldMsg

	startTime time.Time

	quit   atomic.Bool
	wakeFD int // -1 when the eventfd wakeup path is disabled

	closed bool
}

// NewScheduler constructs and initializes a Scheduler: it creates the
// epoll instance (and, if [WithWakeEventFD] is set, the wakeup eventfd)
// up front, so a returned error always means construction itself failed,
// never an in-progress Loop.
func NewScheduler(opts ...Option) (*Scheduler, error) {
	cfg := resolveOptions(opts)

	s := &Scheduler{
		logger:         cfg.logger,
		panicHook:      cfg.panicHook,
		errLimit:       cfg.errorLogLimiter,
		poller:         newPoller(cfg.pollerCapacity),
		timerCacheSize: cfg.timerCacheSize,
		registry:       newTaskRegistry(),
		yieldCh:        make(chan yieldMsg),
		startTime:      time.Now(),
		wakeFD:         -1,
	}

	if err := s.poller.init(); err != nil {
		return nil, WrapError("coroio: init poller", err)
	}

	if cfg.wakeEventFD {
		fd, err := createWakeFD()
		if err != nil {
			_ = s.poller.close()
			return nil, WrapError("coroio: create wake eventfd", err)
		}
		if err := s.poller.registerFD(fd, EventRead, func(IOEvents) {
			drainWakeFD(fd)
		}); err != nil {
			_ = closeWakeFD(fd)
			_ = s.poller.close()
			return nil, WrapError("coroio: register wake eventfd", err)
		}
		s.wakeFD = fd
	}

	return s, nil
}

// Close releases the scheduler's OS resources. It does not cancel or wait
// for any still-running tasks; call it only after [Loop] has returned.
func (s *Scheduler) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.wakeFD >= 0 {
		_ = s.poller.unregisterFD(s.wakeFD)
		_ = closeWakeFD(s.wakeFD)
	}
	return s.poller.close()
}

// SetPanicHook installs or replaces the hook invoked on an uncaught task
// panic, before the process terminates.
func (s *Scheduler) SetPanicHook(hook PanicHook) { s.panicHook = hook }

// Logger returns the scheduler's configured structured logger.
func (s *Scheduler) Logger() Logger { return s.logger }

// nowMS returns a monotonic millisecond timestamp relative to scheduler
// construction. Only ever used for differences against timer deadlines
// computed the same way, so an arbitrary epoch is fine.
func (s *Scheduler) nowMS() int64 { return time.Since(s.startTime).Milliseconds() }

// TaskCount returns the number of tasks currently tracked as live.
func (s *Scheduler) TaskCount() int { return s.registry.count() }

// Tasks returns every currently-live task, in spawn order.
func (s *Scheduler) Tasks() []*Task { return s.registry.all() }

// Spawn starts fn as a new coroutine and runs it immediately, up to its
// first suspension point or return (spec §4.3: "record it, resume
// immediately").
func (s *Scheduler) Spawn(fn func(*Task)) *Task {
	t := newTask(s, fn)
	s.registry.add(t)
	t.start()
	msg := <-s.yieldCh
	s.handleYield(msg)
	return t
}

// resume hands values to a suspended task and runs it until its next
// suspension point, completion, or panic. Only ever called from the
// scheduler's own goroutine (poller callbacks and timer firings both run
// inline from within [Loop]).
func (s *Scheduler) resume(t *Task, values []any) {
	if t.state == taskDone {
		return
	}
	t.resumeCh <- values
	msg := <-s.yieldCh
	s.handleYield(msg)
}

func (s *Scheduler) handleYield(msg yieldMsg) {
	switch msg.kind {
	case yieldSuspend:
		// parked on its own resumeCh; nothing further to do here.
	case yieldDone:
		msg.task.state = taskDone
		s.registry.remove(msg.task.id)
	case yieldPanic:
		s.handleTaskPanic(msg)
	}
}

// handleTaskPanic captures both tracebacks spec §4.3 requires, invokes the
// panic hook if one is installed, and then terminates the process: an
// uncaught task panic is always fatal, a deliberate departure from a
// recover-and-continue event loop.
func (s *Scheduler) handleTaskPanic(msg yieldMsg) {
	msg.task.state = taskDone
	s.registry.remove(msg.task.id)

	err := &TaskPanicError{
		Value:          msg.panic,
		TaskID:         msg.task.id,
		TaskTraceback:  Traceback{Goroutine: "task", Stack: msg.stack},
		SchedTraceback: Traceback{Goroutine: "scheduler", Stack: debug.Stack()},
	}

	if s.logger.IsEnabled(LevelError) {
		s.logger.Log(LogEntry{
			Level:    LevelError,
			Category: "task",
			TaskID:   msg.task.id,
			Message:  "uncaught panic, terminating",
			Err:      err,
		})
	}

	if s.panicHook != nil {
		s.panicHook(err)
	}

	fatalTerminate(err)
}

// logPollError emits a rate-limited diagnostic when the poller reports
// EPOLLERR/EPOLLHUP on fd. catrate's per-category sliding window is keyed
// by fd here, so one flapping descriptor can't drown out every other
// diagnostic line the scheduler emits — the guard spec §9 calls for
// around the poll/IO error path.
func (s *Scheduler) logPollError(fd int, events IOEvents) {
	if !s.errLimit.allow(fd) {
		return
	}
	if s.logger.IsEnabled(LevelWarn) {
		s.logger.Log(LogEntry{
			Level:    LevelWarn,
			Category: "io",
			FD:       fd,
			Message:  "poll reported error/hangup",
		})
	}
}

// Sleep suspends the calling task for d, resuming it once the timer
// fires. It must only be called from within the task's own fn.
func (s *Scheduler) Sleep(t *Task, d time.Duration) {
	tm := s.timerAlloc()
	s.timerStart(tm, d.Seconds(), timerHolder{kind: holderTask, task: t})
	t.suspend()
}

// Unloop requests that [Loop] return as soon as possible. It is safe to
// call from any goroutine only if the scheduler was built with
// [WithWakeEventFD]; otherwise it must be called from within a task
// running on this scheduler.
func (s *Scheduler) Unloop() {
	s.quit.Store(true)
	if s.wakeFD >= 0 {
		_ = signalWakeFD(s.wakeFD)
	}
}

// Loop runs the scheduler until Unloop is called or there is no more work
// (no live tasks and no armed timers), per spec §4.4:
//
//	drain expired timers -> check quit -> compute next deadline ->
//	block in the poller for at most that long -> repeat
func (s *Scheduler) Loop() error {
	for {
		now := s.nowMS()
		s.drainExpiredTimers(now)

		if s.quit.Load() {
			return nil
		}
		if s.registry.count() == 0 && s.timers.Len() == 0 {
			return nil
		}

		timeout := s.nextTimeoutMS(s.nowMS())
		if _, err := s.poller.pollIO(timeout); err != nil {
			return WrapError("coroio: poll", err)
		}
	}
}
