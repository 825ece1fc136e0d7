package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func at(day string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", day)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func TestEvaluateFirstLogin(t *testing.T) {
	next, ev := Evaluate(State{}, at("2024-03-01 09:00"))

	require.Equal(t, EventFirstLogin, ev.Kind)
	require.Equal(t, 1, ev.Streak)
	require.Equal(t, 1, ev.Change)
	require.Equal(t, 1, next.Streak)
	require.NotNil(t, next.LastLoginDay)
	require.Equal(t, "2024-03-01", next.LastLoginDay.String())
	require.Len(t, next.LoginDays, 1)
}

func TestEvaluateSameDayIsNoOp(t *testing.T) {
	state, _ := Evaluate(State{}, at("2024-03-01 09:00"))

	for _, hour := range []string{"2024-03-01 09:00", "2024-03-01 12:30", "2024-03-01 23:59"} {
		next, ev := Evaluate(state, at(hour))
		require.Equal(t, EventNoOp, ev.Kind)
		require.Equal(t, 1, ev.Streak)
		require.Zero(t, ev.Change)
		require.False(t, ev.Mutating())
		require.Equal(t, state, next)
	}
}

func TestEvaluateConsecutiveDayGrows(t *testing.T) {
	state, _ := Evaluate(State{}, at("2024-03-01 09:00"))

	next, ev := Evaluate(state, at("2024-03-02 08:00"))
	require.Equal(t, EventGrew, ev.Kind)
	require.Equal(t, 2, ev.Streak)
	require.Equal(t, 1, ev.Change)
	require.Equal(t, 2, next.Streak)
	require.Len(t, next.LoginDays, 2)
}

func TestEvaluateMonotonicGrowth(t *testing.T) {
	state := State{}
	day := at("2024-03-01 09:00")
	for want := 1; want <= 120; want++ {
		var ev Event
		state, ev = Evaluate(state, day)
		require.Equal(t, want, state.Streak)
		require.Equal(t, want, ev.Streak)
		day = day.AddDate(0, 0, 1)
	}
}

func TestEvaluateGapResets(t *testing.T) {
	state, _ := Evaluate(State{}, at("2024-03-01 09:00"))
	state, _ = Evaluate(state, at("2024-03-02 09:00"))

	// Gap of 3 days: last login 03-02, next on 03-05.
	next, ev := Evaluate(state, at("2024-03-05 09:00"))
	require.Equal(t, EventReset, ev.Kind)
	require.Equal(t, 1, ev.Streak)
	require.Equal(t, -2, ev.Change)
	require.Equal(t, 2, ev.PreviousStreak)
	require.Equal(t, 1, next.Streak)
	require.Equal(t, "2024-03-05", next.LastLoginDay.String())
}

func TestEvaluateResetAlwaysForGapsOfTwoOrMore(t *testing.T) {
	for gap := 2; gap <= 10; gap++ {
		state, _ := Evaluate(State{}, at("2024-03-01 09:00"))
		_, ev := Evaluate(state, at("2024-03-01 09:00").AddDate(0, 0, gap))
		require.Equal(t, EventReset, ev.Kind, "gap of %d days", gap)
		require.Equal(t, -1, ev.Change)
		require.Equal(t, 1, ev.PreviousStreak)
	}
}

func TestEvaluateClockSkewClamp(t *testing.T) {
	state, _ := Evaluate(State{}, at("2024-03-05 09:00"))

	// An out-of-order call dated before the recorded day must neither
	// decrement nor corrupt state.
	next, ev := Evaluate(state, at("2024-03-03 09:00"))
	require.Equal(t, EventNoOp, ev.Kind)
	require.Equal(t, state, next)
	require.Equal(t, "2024-03-05", next.LastLoginDay.String())
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	state, _ := Evaluate(State{}, at("2024-03-01 09:00"))
	before := cloneState(state)

	_, _ = Evaluate(state, at("2024-03-02 09:00"))
	require.Equal(t, before, state)
}

func TestHistoryCapEvictsOldestFirst(t *testing.T) {
	state := State{}
	day := at("2024-01-01 09:00")
	for i := 0; i < 400; i++ {
		state, _ = Evaluate(state, day)
		require.LessOrEqual(t, len(state.LoginDays), HistoryLimit)
		day = day.AddDate(0, 0, 1)
	}

	require.Len(t, state.LoginDays, HistoryLimit)
	newest := state.LoginDays[len(state.LoginDays)-1]
	oldest := state.LoginDays[0]
	require.Equal(t, HistoryLimit-1, Diff(oldest, newest))

	// Ascending and duplicate-free.
	for i := 1; i < len(state.LoginDays); i++ {
		require.Greater(t, int(state.LoginDays[i]), int(state.LoginDays[i-1]))
	}
}

func TestHistoryCapIsAgeBasedNotCountBased(t *testing.T) {
	// Sparse logins: one every 10 days. A count-based cap would retain
	// years of history; the age-based window keeps only days within the
	// last 365.
	state := State{}
	day := at("2020-01-01 09:00")
	for i := 0; i < 100; i++ {
		state, _ = Evaluate(state, day)
		day = day.AddDate(0, 0, 10)
	}

	newest := *state.LastLoginDay
	for _, d := range state.LoginDays {
		require.Less(t, Diff(d, newest), HistoryLimit)
	}
	require.Len(t, state.LoginDays, 37) // 365 window / 10-day cadence, inclusive
}

func TestLoginDaysContainLastLoginDay(t *testing.T) {
	state := State{}
	times := []string{
		"2024-03-01 09:00",
		"2024-03-02 10:00",
		"2024-03-09 11:00",
		"2024-03-10 12:00",
	}
	for _, ts := range times {
		state, _ = Evaluate(state, at(ts))
		require.NotNil(t, state.LastLoginDay)
		require.Contains(t, state.LoginDays, *state.LastLoginDay)
	}
}
