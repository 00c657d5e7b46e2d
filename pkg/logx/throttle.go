package logx

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxThrottleKeys = 1024

// Throttle limits how often a message for the same key is emitted.
//
// Watch mode re-evaluates every task on each refresh; without throttling a
// single malformed schedule would log one warning per date per refresh.
type Throttle struct {
	mu    sync.Mutex
	every time.Duration
	burst int
	lims  map[string]*rate.Limiter
}

// NewThrottle allows burst events per key, refilling one every interval.
// A non-positive interval disables throttling.
func NewThrottle(every time.Duration, burst int) *Throttle {
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{every: every, burst: burst, lims: map[string]*rate.Limiter{}}
}

// Allow reports whether an event for key may be emitted now.
func (t *Throttle) Allow(key string) bool {
	if t == nil || t.every <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	lim, ok := t.lims[key]
	if !ok {
		if len(t.lims) >= maxThrottleKeys {
			// drop everything rather than track eviction order
			t.lims = map[string]*rate.Limiter{}
		}
		lim = rate.NewLimiter(rate.Every(t.every), t.burst)
		t.lims[key] = lim
	}
	return lim.Allow()
}

// Warn logs through l when key is not throttled.
func (t *Throttle) Warn(l Logger, key, msg string, fields ...Field) {
	if !t.Allow(key) {
		return
	}
	l.Warn(msg, fields...)
}
