// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coroio

import "time"

// schedulerOptions holds configuration resolved from Option values, the
// same functional-options pattern the teacher uses for its Loop.
type schedulerOptions struct {
	logger          Logger
	panicHook       PanicHook
	timerCacheSize  int
	pollerCapacity  int
	wakeEventFD     bool
	errorLogLimiter *errorRateLimiter
}

// Option configures a Scheduler at construction time.
type Option interface {
	apply(*schedulerOptions)
}

type optionFunc func(*schedulerOptions)

func (f optionFunc) apply(o *schedulerOptions) { f(o) }

// WithLogger installs a structured logger. The default is a [NoOpLogger].
func WithLogger(l Logger) Option {
	return optionFunc(func(o *schedulerOptions) { o.logger = l })
}

// PanicHook is invoked, if installed, when a task panics without
// recovering. It cannot prevent the process from terminating afterward —
// it exists purely to let an embedder record the failure (spec §4.3).
type PanicHook func(err *TaskPanicError)

// WithPanicHook installs a hook invoked on uncaught task panics, before the
// process terminates.
func WithPanicHook(hook PanicHook) Option {
	return optionFunc(func(o *schedulerOptions) { o.panicHook = hook })
}

// WithTimerCacheSize sets the bound on the scheduler's free timer-object
// cache. The spec's default (and lua-eco's MAX_TIMER_CACHE) is 32.
func WithTimerCacheSize(n int) Option {
	return optionFunc(func(o *schedulerOptions) {
		if n > 0 {
			o.timerCacheSize = n
		}
	})
}

// WithPollerCapacity sets the epoll event batch size used per pollIO call.
// The spec's default (lua-eco's MAX_EVENTS) is 128.
func WithPollerCapacity(n int) Option {
	return optionFunc(func(o *schedulerOptions) {
		if n > 0 {
			o.pollerCapacity = n
		}
	})
}

// WithWakeEventFD enables the eventfd-based wakeup path so [Scheduler.Unloop]
// may be called safely from a goroutine other than the one running
// [Scheduler.Loop] — lua-eco's own documented "stop from another coroutine
// or signal handler" usage.
func WithWakeEventFD(enabled bool) Option {
	return optionFunc(func(o *schedulerOptions) { o.wakeEventFD = enabled })
}

// WithPollErrorRateLimit rate-limits "poll error" diagnostic log lines per
// file descriptor, so a single flapping fd cannot flood the configured
// Logger. window/limit follow github.com/joeycumines/go-catrate semantics:
// at most limit events per window, per category.
func WithPollErrorRateLimit(window time.Duration, limit int) Option {
	return optionFunc(func(o *schedulerOptions) {
		o.errorLogLimiter = newErrorRateLimiter(window, limit)
	})
}

func resolveOptions(opts []Option) *schedulerOptions {
	cfg := &schedulerOptions{
		logger:         NewNoOpLogger(),
		timerCacheSize: defaultTimerCacheSize,
		pollerCapacity: defaultPollerCapacity,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}
