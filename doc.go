// Package coroio implements an embeddable, single-threaded, cooperative
// asynchronous I/O runtime: a readiness-notification scheduler, a coroutine
// task model built on goroutine fibers, non-blocking I/O primitives with
// timeouts and cancellation, and two byte-buffer types tuned for different
// access patterns.
//
// # Concurrency model
//
// A Scheduler is not safe for concurrent use by multiple goroutines in the
// general case. Exactly one goroutine — the one that calls [Scheduler.Loop]
// — ever touches the timer list, the readiness notifier, or decides which
// task runs next. Tasks are themselves goroutines, but they behave as
// cooperative fibers: each blocks on its own private channel until the
// scheduler resumes it, and the scheduler blocks on a shared channel until
// the running task yields back. At most one of {scheduler, some task} is
// ever actually executing. The only operation safe to call from outside
// this baton-passing arrangement is [Scheduler.Unloop].
//
// # Buffers
//
// [FIFOBuffer] is a simple producer/consumer byte queue with first/last
// cursors, intended for line-oriented or streaming reads. [BufIOBuffer] is
// a seekable read buffer with independent read/write cursors supporting
// peek, find, and in-place compaction, intended for protocol parsing where
// a caller needs to look ahead before consuming.
//
// # Usage
//
//	sched, err := coroio.NewScheduler()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sched.Close()
//
//	sched.Spawn(func(t *coroio.Task) {
//	    sched.Sleep(t, 100*time.Millisecond)
//	    fmt.Println("awake")
//	    sched.Unloop()
//	})
//
//	if err := sched.Loop(); err != nil {
//	    log.Fatal(err)
//	}
package coroio
