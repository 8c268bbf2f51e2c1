// Package ratelimit gates outbound model calls with two fixed windows: an
// hourly budget and a per-minute burst budget. A call is admitted only when
// both windows have capacity at the moment of the attempt.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// DeniedError reports which window ran out of capacity.
type DeniedError struct {
	Window string // "hour" or "minute"
	Limit  int
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("rate limited: %s budget of %d calls exhausted, try again later", e.Window, e.Limit)
}

type window struct {
	start time.Time
	used  int
}

// Limiter is an explicitly injected component, never a package singleton, so
// handlers share one instance and tests construct their own.
type Limiter struct {
	mu        sync.Mutex
	perHour   int
	perMinute int
	hour      window
	minute    window
	now       func() time.Time
}

func New(perHour, perMinute int) *Limiter {
	return &Limiter{
		perHour:   perHour,
		perMinute: perMinute,
		now:       time.Now,
	}
}

// SetClock replaces the time source. Test hook.
func (l *Limiter) SetClock(now func() time.Time) {
	l.now = now
}

// Allow consumes one call from both windows, or neither. The check and the
// decrement happen under one lock so concurrent handlers cannot oversubscribe
// a budget between checking and consuming.
func (l *Limiter) Allow() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.hour.start) >= time.Hour {
		l.hour = window{start: now}
	}
	if now.Sub(l.minute.start) >= time.Minute {
		l.minute = window{start: now}
	}

	if l.hour.used >= l.perHour {
		return &DeniedError{Window: "hour", Limit: l.perHour}
	}
	if l.minute.used >= l.perMinute {
		return &DeniedError{Window: "minute", Limit: l.perMinute}
	}

	l.hour.used++
	l.minute.used++
	return nil
}
