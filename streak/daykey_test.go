package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayOfUsesUTCCalendarDay(t *testing.T) {
	// 2024-03-01 23:30 UTC and 2024-03-02 00:10 UTC are different days.
	a := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	b := time.Date(2024, 3, 2, 0, 10, 0, 0, time.UTC)
	require.Equal(t, 1, Diff(DayOf(a), DayOf(b)))

	// The same instant expressed in different zones maps to one day.
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	utc := time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC)
	require.Equal(t, DayOf(utc), DayOf(utc.In(ny)))

	// A local evening that is already past midnight UTC counts as the
	// next UTC day.
	localEvening := time.Date(2024, 3, 1, 22, 0, 0, 0, ny) // 03:00 UTC on Mar 2
	require.Equal(t, "2024-03-02", DayOf(localEvening).String())
}

func TestDayOfSameDayInstants(t *testing.T) {
	day := DayOf(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.Equal(t, day, DayOf(time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)))
	require.Equal(t, day, DayOf(time.Date(2024, 3, 1, 23, 59, 59, 999999999, time.UTC)))
}

func TestDiffSigned(t *testing.T) {
	a := DayOf(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	b := DayOf(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	require.Equal(t, 4, Diff(a, b))
	require.Equal(t, -4, Diff(b, a))
	require.Equal(t, 0, Diff(a, a))
}

func TestDayKeyRoundTrip(t *testing.T) {
	d := DayOf(time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC))
	require.Equal(t, "2024-02-29", d.String())
	require.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d.Time())
	require.Equal(t, d, DayOf(d.Time()))
}
