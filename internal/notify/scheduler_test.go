package notify

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerCoalescesTouches(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(30*time.Millisecond, func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		s.Touch()
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, s.Pending())
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())
	assert.False(t, s.Pending())
}

func TestSchedulerCancelAndStop(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(20*time.Millisecond, func() { calls.Add(1) })

	assert.False(t, s.Cancel())
	s.Touch()
	assert.True(t, s.Cancel())

	s.Stop()
	s.Touch()
	assert.False(t, s.Pending())
	time.Sleep(40 * time.Millisecond)
	assert.EqualValues(t, 0, calls.Load())
}

func TestSchedulerNext(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(time.Second), (&Scheduler{Every: time.Second}).Next(now))
	assert.Equal(t, now, (&Scheduler{}).Next(now))
}
