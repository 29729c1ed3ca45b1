package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetIntervalTicks(t *testing.T) {
	s := New()
	defer s.Stop()

	var n atomic.Int32
	s.SetInterval(10*time.Millisecond, func() { n.Add(1) })

	assert.Equal(t, 10*time.Millisecond, s.Interval())
	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestZeroIntervalCancels(t *testing.T) {
	s := New()

	var n atomic.Int32
	s.SetInterval(10*time.Millisecond, func() { n.Add(1) })
	assert.Eventually(t, func() bool { return n.Load() >= 1 }, time.Second, 5*time.Millisecond)

	s.SetInterval(0, func() { n.Add(1) })
	assert.Zero(t, s.Interval())

	// Stop waits for the goroutine, so no tick can land after it returns.
	after := n.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, n.Load())
}

func TestReplacingIntervalLeavesOneTimer(t *testing.T) {
	s := New()
	defer s.Stop()

	var first, second atomic.Int32
	s.SetInterval(5*time.Millisecond, func() { first.Add(1) })
	s.SetInterval(10*time.Millisecond, func() { second.Add(1) })

	frozen := first.Load()
	assert.Eventually(t, func() bool { return second.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, frozen, first.Load())
}

func TestStopIsIdempotent(t *testing.T) {
	s := New()
	s.Stop()
	s.SetInterval(time.Hour, func() {})
	s.Stop()
	s.Stop()
	assert.Zero(t, s.Interval())
}
