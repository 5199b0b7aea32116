package services

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func TestNextDailyFire(t *testing.T) {
	beirut, err := time.LoadLocation("Asia/Beirut")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}

	tests := []struct {
		name string
		now  time.Time
		hhmm string
		loc  *time.Location
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
			hhmm: "09:30",
			loc:  time.UTC,
			want: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "already passed rolls to tomorrow",
			now:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			hhmm: "09:30",
			loc:  time.UTC,
			want: time.Date(2026, 3, 3, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "exactly at fire time rolls to tomorrow",
			now:  time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
			hhmm: "09:30",
			loc:  time.UTC,
			want: time.Date(2026, 3, 3, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "wall clock is local to the zone",
			now:  time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC), // 08:00 in Beirut
			hhmm: "09:30",
			loc:  beirut,
			want: time.Date(2026, 3, 2, 9, 30, 0, 0, beirut),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDailyFire(tt.now, tt.hhmm, tt.loc)
			if !got.Equal(tt.want) {
				t.Errorf("NextDailyFire() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchedulerReplacesRegistration(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	s := NewScheduler(clock)
	defer s.Stop()

	var mu sync.Mutex
	fired := make(map[string]int)
	record := func(key string) func() {
		return func() {
			mu.Lock()
			fired[key]++
			mu.Unlock()
		}
	}

	s.Every("job", 10*time.Millisecond, record("first"))
	// Re-registering under the same name must cancel the first timer
	s.Every("job", 10*time.Millisecond, record("second"))

	time.Sleep(60 * time.Millisecond)
	s.Cancel("job")

	mu.Lock()
	firstRuns, secondRuns := fired["first"], fired["second"]
	mu.Unlock()

	if firstRuns != 0 {
		t.Errorf("replaced job fired %d times, want 0", firstRuns)
	}
	if secondRuns == 0 {
		t.Error("replacement job never fired")
	}

	// After Cancel no further runs accumulate
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	after := fired["second"]
	mu.Unlock()
	if after != secondRuns {
		t.Errorf("job fired after Cancel: %d -> %d", secondRuns, after)
	}
}

func TestSchedulerStopPreventsNewRegistrations(t *testing.T) {
	s := NewScheduler(nil)
	s.Stop()

	ran := make(chan struct{}, 1)
	s.Every("late", time.Millisecond, func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	})

	select {
	case <-ran:
		t.Error("job registered after Stop should never run")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestDailyAtValidation(t *testing.T) {
	s := NewScheduler(nil)
	defer s.Stop()

	if err := s.DailyAt("bad-tz", "09:30", "Not/AZone", func() {}); err == nil {
		t.Error("invalid timezone should be rejected")
	}
	if err := s.DailyAt("bad-time", "25:99", "UTC", func() {}); err == nil {
		t.Error("invalid wall-clock time should be rejected")
	}
	if err := s.DailyAt("ok", "23:59", "UTC", func() {}); err != nil {
		t.Errorf("valid registration rejected: %v", err)
	}
}
