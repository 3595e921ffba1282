package coroio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveOptionsDefaults(t *testing.T) {
	cfg := resolveOptions(nil)
	require.Equal(t, defaultTimerCacheSize, cfg.timerCacheSize)
	require.Equal(t, defaultPollerCapacity, cfg.pollerCapacity)
	require.False(t, cfg.wakeEventFD)
	require.IsType(t, &NoOpLogger{}, cfg.logger)
}

func TestResolveOptionsAppliesOverrides(t *testing.T) {
	logger := NewNoOpLogger()
	cfg := resolveOptions([]Option{
		WithLogger(logger),
		WithTimerCacheSize(64),
		WithPollerCapacity(256),
		WithWakeEventFD(true),
	})

	require.Same(t, logger, cfg.logger)
	require.Equal(t, 64, cfg.timerCacheSize)
	require.Equal(t, 256, cfg.pollerCapacity)
	require.True(t, cfg.wakeEventFD)
}

func TestWithTimerCacheSizeIgnoresNonPositive(t *testing.T) {
	cfg := resolveOptions([]Option{WithTimerCacheSize(0), WithTimerCacheSize(-5)})
	require.Equal(t, defaultTimerCacheSize, cfg.timerCacheSize)
}

func TestWithPollErrorRateLimitWiresLimiter(t *testing.T) {
	cfg := resolveOptions([]Option{WithPollErrorRateLimit(time.Second, 3)})
	require.NotNil(t, cfg.errorLogLimiter)
	require.True(t, cfg.errorLogLimiter.allow(1))
}

func TestNilOptionIsIgnored(t *testing.T) {
	require.NotPanics(t, func() {
		resolveOptions([]Option{nil, WithTimerCacheSize(10)})
	})
}
