package core

// limiter.go serializes ingestion passes.
//
// A pass drops and rebuilds the whole record store, so two passes must never
// interleave. The limiter is a one-slot semaphore by default; a second caller
// waits up to maxWait for the running pass and then fails with
// ErrIngestionBusy.

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxWaitTime is how long to wait for the running pass before rejecting.
const DefaultMaxWaitTime = 10 * time.Second

// Limiter controls concurrent ingestion using a semaphore.
type Limiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewLimiter creates a limiter admitting at most slots simultaneous passes.
// Callers that cannot acquire a slot within maxWait receive ErrIngestionBusy.
func NewLimiter(slots int, maxWait time.Duration) *Limiter {
	if slots <= 0 {
		slots = 1
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &Limiter{
		semaphore: make(chan struct{}, slots),
		maxWait:   maxWait,
	}
}

// Acquire blocks until a slot is free, maxWait elapses or ctx is done.
// The caller MUST call Release when the pass completes.
func (l *Limiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrIngestionBusy
	}
}

// Release frees a slot taken by Acquire.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of running passes.
func (l *Limiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *Limiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no pass is running or ctx is done.
// Used on shutdown so a store rebuild is never cut off mid-transaction.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter's state.
type LimiterStatus struct {
	Active    int `json:"active"`
	Available int `json:"available"`
	Slots     int `json:"slots"`
}

// Status returns the current limiter state for monitoring.
func (l *Limiter) Status() LimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return LimiterStatus{
		Active:    active,
		Available: l.Available(),
		Slots:     cap(l.semaphore),
	}
}
