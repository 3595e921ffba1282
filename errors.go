package coroio

import (
	"errors"
	"fmt"
	"os"
)

// Sentinel reason strings. EOF, timeouts, cancellation, buffer exhaustion,
// and double-wait misuse detection all report one of these strings
// verbatim.
const (
	reasonEOF         = "eof"
	reasonTimeout     = "timeout"
	reasonCanceled    = "canceled"
	reasonBufferFull  = "buffer is full"
	reasonAlreadyWait = "another coroutine is already waiting on this fd"
)

var (
	// ErrEOF is returned when a read observes end-of-file.
	ErrEOF = errors.New(reasonEOF)

	// ErrTimeout is returned when a soft deadline elapses before an I/O
	// operation could complete.
	ErrTimeout = errors.New(reasonTimeout)

	// ErrCanceled is returned when a pending wait is canceled via
	// [IoHandle.Cancel] before it completes.
	ErrCanceled = errors.New(reasonCanceled)

	// ErrBufferFull is returned when a buffer has no room left for a fill
	// or append operation.
	ErrBufferFull = errors.New(reasonBufferFull)

	// ErrAlreadyWaiting is returned when a second task attempts to wait on
	// an [IoHandle] that already has a waiter registered. Exactly one task
	// may wait on a given handle at a time.
	ErrAlreadyWaiting = errors.New(reasonAlreadyWait)

	// ErrSchedulerClosed names the state of a Scheduler after Close. No
	// operation in this package returns it: a Loop after Close fails with a
	// wrapped [ErrPollerClosed] instead.
	ErrSchedulerClosed = errors.New("coroio: scheduler is closed")
)

// MisuseError reports a programming error: a violation of an invariant the
// caller was responsible for upholding (e.g. waiting on a handle twice).
type MisuseError struct {
	Cause   error
	Message string
}

func (e *MisuseError) Error() string {
	if e.Message == "" {
		return "misuse"
	}
	return e.Message
}

func (e *MisuseError) Unwrap() error { return e.Cause }

// ErrnoError wraps a raw syscall errno surfaced from a read, write, or
// poller operation. Its Error() text is the errno's own description,
// prefixed with "Op: " when Op is set.
type ErrnoError struct {
	Op    string
	Errno error
}

func (e *ErrnoError) Error() string {
	if e.Op == "" {
		return e.Errno.Error()
	}
	return e.Op + ": " + e.Errno.Error()
}

func (e *ErrnoError) Unwrap() error { return e.Errno }

// Traceback captures a goroutine's stack at the point a panic was recovered.
type Traceback struct {
	// Goroutine names which goroutine this trace belongs to: "task" for the
	// failing task's own stack, "scheduler" for the scheduler goroutine's
	// stack at the moment it observed the failure.
	Goroutine string
	Stack     []byte
}

func (t Traceback) String() string {
	return fmt.Sprintf("--- %s ---\n%s", t.Goroutine, t.Stack)
}

// TaskPanicError is the fatal error constructed when a task's function
// panics without recovering. It always carries two tracebacks: the
// panicking task's own stack, and the scheduler thread's stack at the
// moment it observed the failure — mirroring lua-eco's eco_resume, which
// captures a traceback for both the failing coroutine and the main thread
// before deciding what to do next.
//
// A TaskPanicError is always fatal: after any installed panic hook is
// invoked with it, the process terminates. The hook can observe and log
// the failure, but cannot prevent termination.
type TaskPanicError struct {
	Value          any
	TaskTraceback  Traceback
	SchedTraceback Traceback
	TaskID         uint64
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("coroio: task %d panicked: %v", e.TaskID, e.Value)
}

func (e *TaskPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// WrapError wraps an error with a message, preserving the cause chain so
// that errors.Is/errors.As still match the original error.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}

// fatalTerminate prints both tracebacks carried by err and exits the
// process. Uncaught task panics are unconditionally fatal (spec §4.3);
// there is no recover-and-continue path.
func fatalTerminate(err *TaskPanicError) {
	fmt.Fprintln(os.Stderr, err.Error())
	fmt.Fprintln(os.Stderr, err.TaskTraceback.String())
	fmt.Fprintln(os.Stderr, err.SchedTraceback.String())
	os.Exit(1)
}
