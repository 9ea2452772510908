package schedule

import (
	"context"
	"time"

	config "github.com/maheshrc27/xflow/configs"
)

// ConflictReader is the slice of post persistence the slot finder needs.
// Satisfied by repository.PostRepository.
type ConflictReader interface {
	// CountScheduledBetween counts a user's scheduled posts in [from, to).
	CountScheduledBetween(ctx context.Context, userID int64, from, to time.Time) (int, error)
	// AnyScheduledBetween reports whether any scheduled post falls in
	// [from, to] inclusive.
	AnyScheduledBetween(ctx context.Context, userID int64, from, to time.Time) (bool, error)
}

// Policy is the per-request constraint set. A preferred window with
// Start >= End is treated as no constraint; wrap-around preferred windows
// are not supported.
type Policy struct {
	ExcludeWeekends bool
	PreferredStart  *int
	PreferredEnd    *int
}

// SlotFinder greedily searches forward for the earliest publish instant
// satisfying quiet hours, the daily cap, minimum spacing and the optional
// policy. The conflict check is read-then-decide; slot acceptance is a
// per-user user action, so that is safe enough without a lock.
type SlotFinder struct {
	cfg   config.AutoSchedule
	posts ConflictReader
}

func NewSlotFinder(cfg config.AutoSchedule, posts ConflictReader) *SlotFinder {
	return &SlotFinder{cfg: cfg, posts: posts}
}

// FindSlot returns the next free UTC instant for the user. Local time is
// modeled as UTC + offsetMinutes throughout.
func (f *SlotFinder) FindSlot(ctx context.Context, userID int64, offsetMinutes, dailyCap int, policy *Policy, nowUTC time.Time) (time.Time, error) {
	offset := time.Duration(offsetMinutes) * time.Minute
	localNow := nowUTC.UTC().Add(offset)

	slotMinutes := clamp(f.cfg.SlotMinutes, 1, 60)
	maxDays := clamp(f.cfg.MaxSearchDays, 1, 365)
	minGap := time.Duration(clamp(f.cfg.MinGapMinutes, 0, 24*60)) * time.Minute
	quietEnd := clamp(f.cfg.QuietEndHour, 0, 23)
	dailyCap = clamp(dailyCap, 1, 50)

	// First candidate: next slot boundary at least one minute out.
	candidate := roundUpToSlot(localNow.Add(time.Minute), slotMinutes)
	day := dayStart(candidate)

	for i := 0; i < maxDays; i++ {
		if i > 0 {
			day = day.AddDate(0, 0, 1)
			candidate = day.Add(time.Duration(quietEnd) * time.Hour)
		}

		if policy != nil && policy.ExcludeWeekends {
			if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
		}

		dayStartUTC := day.Add(-offset)
		count, err := f.posts.CountScheduledBetween(ctx, userID, dayStartUTC, dayStartUTC.AddDate(0, 0, 1))
		if err != nil {
			return time.Time{}, err
		}
		if count >= dailyCap {
			continue
		}

		dayEnd := day.AddDate(0, 0, 1)
		for candidate.Before(dayEnd) {
			candidate = f.skipQuietHours(candidate, day)
			candidate = applyPreferredWindow(candidate, day, policy)
			if !candidate.Before(dayEnd) {
				break
			}

			candidateUTC := candidate.Add(-offset)
			conflict, err := f.posts.AnyScheduledBetween(ctx, userID, candidateUTC.Add(-minGap), candidateUTC.Add(minGap))
			if err != nil {
				return time.Time{}, err
			}
			if !conflict {
				return candidateUTC, nil
			}
			candidate = candidate.Add(time.Duration(slotMinutes) * time.Minute)
		}
	}

	// Horizon exhausted: deterministic fallback, tomorrow at quiet end.
	fallback := dayStart(localNow).AddDate(0, 0, 1).Add(time.Duration(quietEnd) * time.Hour)
	return fallback.Add(-offset), nil
}

// skipQuietHours moves a candidate out of the [start, end) quiet window,
// which may wrap past midnight (e.g. 23 -> 8).
func (f *SlotFinder) skipQuietHours(local, day time.Time) time.Time {
	start := clamp(f.cfg.QuietStartHour, 0, 23)
	end := clamp(f.cfg.QuietEndHour, 0, 23)
	if start == end {
		return local
	}

	h := local.Hour()
	var inQuiet bool
	if start < end {
		inQuiet = h >= start && h < end
	} else {
		inQuiet = h >= start || h < end
	}
	if !inQuiet {
		return local
	}

	// Past the wrap point of an overnight window: quiet ends tomorrow.
	if start > end && h >= start {
		return day.AddDate(0, 0, 1).Add(time.Duration(end) * time.Hour)
	}
	return day.Add(time.Duration(end) * time.Hour)
}

// applyPreferredWindow clamps a candidate into the policy's [start, end)
// local-hour window: before it, jump to start; at or past it, jump to the
// next day's start.
func applyPreferredWindow(local, day time.Time, policy *Policy) time.Time {
	if policy == nil || policy.PreferredStart == nil || policy.PreferredEnd == nil {
		return local
	}

	start := clamp(*policy.PreferredStart, 0, 23)
	end := clamp(*policy.PreferredEnd, 0, 23)
	if start >= end {
		// Degenerate or wrap-around window: no constraint.
		return local
	}

	h := local.Hour()
	if h < start {
		return day.Add(time.Duration(start) * time.Hour)
	}
	if h >= end {
		return day.AddDate(0, 0, 1).Add(time.Duration(start) * time.Hour)
	}
	return local
}

func roundUpToSlot(t time.Time, slotMinutes int) time.Time {
	if slotMinutes <= 1 {
		return t
	}
	d := time.Duration(slotMinutes) * time.Minute
	rounded := t.Truncate(d)
	if rounded.Before(t) {
		rounded = rounded.Add(d)
	}
	return rounded
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
