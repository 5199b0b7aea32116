package services

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Clock abstracts time.Now so job scheduling can be tested with a fake
type Clock interface {
	Now() time.Time
}

// RealClock is the production clock
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Scheduler owns the process-local background timers. Each named job has at
// most one live registration: registering the same name again replaces the
// previous timer. Only one scheduler should run per logical deployment;
// there is no distributed coordination.
type Scheduler struct {
	clock   Clock
	mu      sync.Mutex
	cancels map[string]chan struct{}
	wg      sync.WaitGroup
	stopped bool
}

// NewScheduler creates a scheduler using the given clock
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	return &Scheduler{
		clock:   clock,
		cancels: make(map[string]chan struct{}),
	}
}

// Every runs fn at a fixed interval until the registration is replaced or
// the scheduler stops. The first run happens one interval from now.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) {
	cancel := s.replaceRegistration(name)
	if cancel == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-cancel:
				return
			}
		}
	}()
}

// DailyAt runs fn once per day at the given local wall-clock time.
func (s *Scheduler) DailyAt(name, hhmm, timezone string, fn func()) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	if _, err := parseWallClock(hhmm); err != nil {
		return err
	}

	cancel := s.replaceRegistration(name)
	if cancel == nil {
		return nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			wait := time.Until(NextDailyFire(s.clock.Now(), hhmm, loc))
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
				fn()
			case <-cancel:
				timer.Stop()
				return
			}
		}
	}()

	log.Printf("Scheduled daily job %q at %s %s", name, hhmm, timezone)
	return nil
}

// Cancel removes a named registration if one exists
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.cancels[name]; ok {
		close(cancel)
		delete(s.cancels, name)
	}
}

// Stop cancels every registration and waits for running jobs to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for name, cancel := range s.cancels {
		close(cancel)
		delete(s.cancels, name)
	}
	s.stopped = true
	s.mu.Unlock()
	s.wg.Wait()
}

// replaceRegistration cancels any previous timer under this name and
// returns the cancel channel for the new one, or nil after Stop.
func (s *Scheduler) replaceRegistration(name string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	if prev, ok := s.cancels[name]; ok {
		close(prev)
	}
	cancel := make(chan struct{})
	s.cancels[name] = cancel
	return cancel
}

// NextDailyFire computes the next occurrence of the hh:mm wall-clock time
// in loc strictly after now.
func NextDailyFire(now time.Time, hhmm string, loc *time.Location) time.Time {
	minutes, err := parseWallClock(hhmm)
	if err != nil {
		minutes = 0
	}

	local := now.In(loc)
	fire := time.Date(local.Year(), local.Month(), local.Day(), minutes/60, minutes%60, 0, 0, loc)
	if !fire.After(now) {
		fire = fire.AddDate(0, 0, 1)
	}
	return fire
}

// parseWallClock parses "hh:mm" into minutes since midnight
func parseWallClock(hhmm string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q, expected hh:mm", hhmm)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q, expected hh:mm", hhmm)
	}
	return h*60 + m, nil
}
