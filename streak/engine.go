package streak

import "time"

// HistoryLimit caps the login-day history to the most recent 365 distinct
// days. Eviction is age-based relative to the newest day, not count-based,
// so gaps between logins never push recent days out early.
const HistoryLimit = 365

// State is the persisted per-user streak state.
type State struct {
	// Streak is the current consecutive-day count. Zero only before any
	// engagement has ever been recorded.
	Streak int
	// LastLoginDay is the day of the most recent recorded engagement,
	// nil for a brand-new user.
	LastLoginDay *DayKey
	// LoginDays is the bounded, ascending, duplicate-free history of
	// engagement days.
	LoginDays []DayKey
}

// Evaluate computes the next state and the semantic event for an
// evaluation at the given instant. It is a pure, total function: it never
// mutates its input, has no side effects, and every input maps to a
// defined output. Persisting the returned state is the caller's job.
//
// Calling Evaluate any number of times within one calendar day is a
// no-op after the first mutating call. An instant that falls before the
// recorded last day (clock skew, out-of-order triggers) is clamped to a
// no-op as well; state is never decremented.
func Evaluate(state State, now time.Time) (State, Event) {
	today := DayOf(now)

	if state.LastLoginDay == nil {
		next := withDay(state, today)
		next.Streak = 1
		return next, Event{Kind: EventFirstLogin, Streak: 1, Change: 1}
	}

	delta := Diff(*state.LastLoginDay, today)
	switch {
	case delta <= 0:
		return state, Event{Kind: EventNoOp, Streak: state.Streak}

	case delta == 1:
		next := withDay(state, today)
		next.Streak = state.Streak + 1
		return next, Event{Kind: EventGrew, Streak: next.Streak, Change: 1}

	default:
		previous := state.Streak
		next := withDay(state, today)
		next.Streak = 1
		change := 1
		if previous > 0 {
			change = -previous
		}
		return next, Event{
			Kind:           EventReset,
			Streak:         1,
			Change:         change,
			PreviousStreak: previous,
		}
	}
}

// withDay returns a copy of state with today appended to the history,
// days that fell out of the retention window evicted oldest-first, and
// LastLoginDay advanced.
func withDay(state State, today DayKey) State {
	days := make([]DayKey, 0, len(state.LoginDays)+1)
	for _, d := range state.LoginDays {
		if Diff(d, today) < HistoryLimit && d != today {
			days = append(days, d)
		}
	}
	days = append(days, today)

	next := state
	next.LoginDays = days
	next.LastLoginDay = &today
	return next
}
