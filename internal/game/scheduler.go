package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cancel stops a scheduled callback. Calling it more than once is a no-op.
type Cancel func()

// Scheduler runs callbacks after a delay or periodically. Callbacks run on a
// scheduler-owned goroutine; the session serializes them itself.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Cancel
	Every(d time.Duration, f func()) Cancel
}

// ClockScheduler is a Scheduler backed by a clockwork.Clock.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type ClockScheduler struct {
	clock clockwork.Clock
}

func NewClockScheduler(clock clockwork.Clock) *ClockScheduler {
	return &ClockScheduler{clock: clock}
}

func (s *ClockScheduler) AfterFunc(d time.Duration, f func()) Cancel {
	timer := s.clock.AfterFunc(d, f)
	return func() { timer.Stop() }
}

func (s *ClockScheduler) Every(d time.Duration, f func()) Cancel {
	ticker := s.clock.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.Chan():
				select {
				case <-done:
					return
				default:
				}
				f()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// timerSet tracks the callbacks scheduled for one round so they can all be
// cancelled when the round ends.
type timerSet struct {
	cancels []Cancel
}

func (t *timerSet) add(c Cancel) {
	t.cancels = append(t.cancels, c)
}

func (t *timerSet) cancelAll() {
	for _, c := range t.cancels {
		c()
	}
	t.cancels = nil
}
