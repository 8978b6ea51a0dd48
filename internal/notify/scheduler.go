// Package notify runs deferred callbacks.
package notify

import (
	"sync"
	"time"
)

// Scheduler runs fn once Every has elapsed since the last Touch. Repeated
// touches inside the window push the deadline back, so bursts collapse into
// a single call.
type Scheduler struct {
	Every time.Duration

	fn      func()
	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func NewScheduler(every time.Duration, fn func()) *Scheduler {
	return &Scheduler{Every: every, fn: fn}
}

// Next returns the deadline a Touch at now would set.
func (s *Scheduler) Next(now time.Time) time.Time {
	if s.Every <= 0 {
		return now
	}
	return now.Add(s.Every)
}

// Touch (re)arms the timer. It is a no-op after Stop.
func (s *Scheduler) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.Every, func() { s.fire(gen) })
}

// fire drops calls from timers that were re-armed or cancelled after they
// had already expired.
func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.stopped {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()
	s.fn()
}

// Cancel disarms a pending timer and reports whether one was pending.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	s.gen++
	return true
}

// Pending reports whether a call is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Stop cancels any pending call and rejects future touches.
func (s *Scheduler) Stop() {
	s.Cancel()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}
