// Package httputil holds small helpers for the HTTP gateway.
package httputil

import (
	"context"
	"sync/atomic"
)

// ScanLimiter bounds the number of analyses the gateway runs at once.
// Requests beyond capacity are shed rather than queued so a flood of
// pathological URLs cannot pile up goroutines.
type ScanLimiter struct {
	slots chan struct{}
	shed  atomic.Int64
}

// NewScanLimiter creates a limiter admitting up to capacity concurrent scans.
func NewScanLimiter(capacity int) *ScanLimiter {
	if capacity <= 0 {
		capacity = 64
	}
	return &ScanLimiter{
		slots: make(chan struct{}, capacity),
	}
}

// TryAcquire claims a slot without blocking. Returns false when the gateway
// is saturated; the caller should respond 429.
func (l *ScanLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		return true
	default:
		l.shed.Add(1)
		return false
	}
}

// Acquire blocks until a slot frees up or the context is cancelled. Used by
// callers that must not shed, like the CLI scan path.
func (l *ScanLimiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot. Safe to call once per successful acquire.
func (l *ScanLimiter) Release() {
	select {
	case <-l.slots:
	default:
	}
}

// ShedCount reports how many requests were rejected at capacity.
func (l *ScanLimiter) ShedCount() int64 {
	return l.shed.Load()
}

// Stats returns a snapshot for the stats endpoint.
func (l *ScanLimiter) Stats() LimiterStats {
	return LimiterStats{
		Capacity: cap(l.slots),
		InUse:    len(l.slots),
		Shed:     l.shed.Load(),
	}
}

// LimiterStats describes limiter utilization.
type LimiterStats struct {
	Capacity int   `json:"capacity"`
	InUse    int   `json:"in_use"`
	Shed     int64 `json:"shed"`
}
