// Package scheduler runs the dashboard's periodic refresh.
package scheduler

import (
	"sync"
	"time"
)

// Scheduler owns at most one ticker goroutine at a time.
type Scheduler struct {
	mu       sync.Mutex
	stop     chan struct{}
	done     chan struct{}
	interval time.Duration
}

func New() *Scheduler {
	return &Scheduler{}
}

// SetInterval cancels the current timer, waiting for its goroutine to exit,
// then starts a new one calling fn every d. d <= 0 only cancels.
// fn runs on the timer goroutine and must not block.
func (s *Scheduler) SetInterval(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	if d <= 0 || fn == nil {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done, s.interval = stop, done, d

	go func() {
		defer close(done)
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				fn()
			}
		}
	}()
}

// Interval is the active period, or zero when nothing is scheduled.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop, s.done, s.interval = nil, nil, 0
}
