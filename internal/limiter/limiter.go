// Package limiter implements fixed-window request limits keyed by caller identity.
//
// Windows are aligned to wall-clock boundaries: a "10 per minute" window
// resets at every full minute, "200 per day" at midnight UTC. State lives in
// process memory and is lost on restart.
package limiter

import (
	"context"
	"sync"
	"time"
)

// Limit caps requests per Period within a Scope.
// Limits with the same Scope share counters across routes.
type Limit struct {
	Count  int
	Period time.Duration
	Scope  string
}

// Decision is the outcome of Allow.
type Decision struct {
	Allowed bool
	// Limit is the violated limit when rejected, otherwise the one with the
	// fewest remaining requests.
	Limit     Limit
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the time until Limit's window resets, rounded up to a whole second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return time.Second
	}
	return (wait + time.Second - 1).Truncate(time.Second)
}

type windowKey struct {
	identity string
	scope    string
	period   time.Duration
	count    int
}

type window struct {
	start time.Time
	count int
}

// Limiter tracks fixed-window counters. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[windowKey]*window
	now     func() time.Time
}

// New creates an empty Limiter.
func New() *Limiter {
	return &Limiter{
		windows: make(map[windowKey]*window),
		now:     time.Now,
	}
}

// Allow checks every limit for identity and, only if none would be exceeded,
// counts the request against all of them. Check and increment are one atomic step.
// With no limits every request is allowed.
func (l *Limiter) Allow(identity string, limits ...Limit) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	wins := make([]*window, len(limits))
	for i, lim := range limits {
		start := now.Truncate(lim.Period)
		key := windowKey{identity: identity, scope: lim.Scope, period: lim.Period, count: lim.Count}
		w, ok := l.windows[key]
		if !ok {
			w = &window{start: start}
			l.windows[key] = w
		} else if !w.start.Equal(start) {
			w.start, w.count = start, 0
		}
		if w.count+1 > lim.Count {
			return Decision{Limit: lim, Remaining: 0, ResetAt: start.Add(lim.Period)}
		}
		wins[i] = w
	}

	d := Decision{Allowed: true, Remaining: -1}
	for i, w := range wins {
		w.count++
		lim := limits[i]
		if rem := lim.Count - w.count; d.Remaining < 0 || rem < d.Remaining {
			d.Limit, d.Remaining, d.ResetAt = lim, rem, w.start.Add(lim.Period)
		}
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	return d
}

// Len returns the number of tracked windows.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Sweep drops windows whose period has ended.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	removed := 0
	for k, w := range l.windows {
		if !now.Before(w.start.Add(k.period)) {
			delete(l.windows, k)
			removed++
		}
	}
	return removed
}

// Run sweeps expired windows every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
