package progress

import "time"

const (
	xpPerLevel = 500
	day        = 24 * time.Hour
)

// Transition names the branch NextStreak took.
type Transition string

const (
	Started   Transition = "started"
	Extended  Transition = "extended"
	Reset     Transition = "reset"
	Unchanged Transition = "unchanged"
	ClockSkew Transition = "clock_skew"
)

// LevelFor derives the level from accumulated XP.
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return 1 + xp/xpPerLevel
}

// DaysSince returns the number of whole 24h periods between last and now,
// floored. Both instants are normalised to UTC first.
func DaysSince(last, now time.Time) int {
	elapsed := now.UTC().Sub(last.UTC())
	if elapsed < 0 {
		// floor toward negative infinity
		return -int((-elapsed + day - 1) / day)
	}
	return int(elapsed / day)
}

// NextStreak computes the streak after an activity at now.
//
// No previous activity starts a streak of 1. Exactly one elapsed day extends it,
// more than one resets it to 1, and less than a day leaves it alone. A last
// activity in the future is treated like the same-day case.
func NextStreak(streak int, lastActivity *time.Time, now time.Time) (int, Transition) {
	if lastActivity == nil || lastActivity.IsZero() {
		return 1, Started
	}
	switch days := DaysSince(*lastActivity, now); {
	case days < 0:
		return streak, ClockSkew
	case days == 0:
		return streak, Unchanged
	case days == 1:
		return streak + 1, Extended
	default:
		return 1, Reset
	}
}
