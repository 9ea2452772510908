package schedule

import (
	"context"
	"testing"
	"time"

	config "github.com/maheshrc27/xflow/configs"
)

// fakeConflictReader serves conflict checks from an in-memory list of
// scheduled UTC instants.
type fakeConflictReader struct {
	scheduled []time.Time
}

func (f *fakeConflictReader) CountScheduledBetween(_ context.Context, _ int64, from, to time.Time) (int, error) {
	n := 0
	for _, s := range f.scheduled {
		if !s.Before(from) && s.Before(to) {
			n++
		}
	}
	return n, nil
}

func (f *fakeConflictReader) AnyScheduledBetween(_ context.Context, _ int64, from, to time.Time) (bool, error) {
	for _, s := range f.scheduled {
		if !s.Before(from) && !s.After(to) {
			return true, nil
		}
	}
	return false, nil
}

func defaultAutoSchedule() config.AutoSchedule {
	return config.AutoSchedule{
		QuietStartHour: 23,
		QuietEndHour:   8,
		MinGapMinutes:  45,
		SlotMinutes:    15,
		MaxSearchDays:  30,
	}
}

func TestFindSlot(t *testing.T) {
	// 2026-03-10 is a Tuesday.
	tests := []struct {
		name      string
		now       time.Time
		offset    int
		dailyCap  int
		policy    *Policy
		scheduled []time.Time
		want      time.Time
	}{
		{
			name:     "empty calendar takes next slot boundary",
			now:      time.Date(2026, 3, 10, 9, 3, 0, 0, time.UTC),
			dailyCap: 3,
			want:     time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC),
		},
		{
			name:     "late evening rolls past quiet hours to next morning",
			now:      time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC),
			dailyCap: 3,
			want:     time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "early morning waits for quiet end",
			now:      time.Date(2026, 3, 10, 3, 10, 0, 0, time.UTC),
			dailyCap: 3,
			want:     time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "minimum gap pushes past nearby post",
			now:      time.Date(2026, 3, 10, 9, 3, 0, 0, time.UTC),
			dailyCap: 5,
			scheduled: []time.Time{
				time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC),
			},
			want: time.Date(2026, 3, 10, 10, 15, 0, 0, time.UTC),
		},
		{
			name:     "existing posts leave room after the last gap",
			now:      time.Date(2026, 3, 10, 8, 20, 0, 0, time.UTC),
			dailyCap: 5,
			scheduled: []time.Time{
				time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
				time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
			},
			want: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "full day skips to tomorrow",
			now:      time.Date(2026, 3, 10, 9, 3, 0, 0, time.UTC),
			dailyCap: 3,
			scheduled: []time.Time{
				time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
				time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
				time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
			},
			want: time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "weekends excluded",
			now:      time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), // Saturday
			dailyCap: 3,
			policy:   &Policy{ExcludeWeekends: true},
			want:     time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC), // Monday
		},
		{
			name:     "preferred window delays to its start",
			now:      time.Date(2026, 3, 10, 9, 3, 0, 0, time.UTC),
			dailyCap: 3,
			policy:   &Policy{PreferredStart: intp(12), PreferredEnd: intp(18)},
			want:     time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		},
		{
			name:     "inverted preferred window is ignored",
			now:      time.Date(2026, 3, 10, 9, 3, 0, 0, time.UTC),
			dailyCap: 3,
			policy:   &Policy{PreferredStart: intp(18), PreferredEnd: intp(12)},
			want:     time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC),
		},
		{
			name:     "offset user gets local slots returned in utc",
			now:      time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
			offset:   180, // local 13:00
			dailyCap: 3,
			want:     time.Date(2026, 3, 10, 10, 15, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := NewSlotFinder(defaultAutoSchedule(), &fakeConflictReader{scheduled: tt.scheduled})
			got, err := finder.FindSlot(context.Background(), 1, tt.offset, tt.dailyCap, tt.policy, tt.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindSlotFallback(t *testing.T) {
	// Every candidate conflicts and the horizon is short, so the finder
	// falls back to tomorrow at the quiet end.
	cfg := defaultAutoSchedule()
	cfg.MaxSearchDays = 2

	reader := &busyConflictReader{}
	finder := NewSlotFinder(cfg, reader)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	got, err := finder.FindSlot(context.Background(), 1, 0, 3, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// busyConflictReader reports a conflict for every window.
type busyConflictReader struct{}

func (busyConflictReader) CountScheduledBetween(context.Context, int64, time.Time, time.Time) (int, error) {
	return 0, nil
}

func (busyConflictReader) AnyScheduledBetween(context.Context, int64, time.Time, time.Time) (bool, error) {
	return true, nil
}

func intp(n int) *int { return &n }
