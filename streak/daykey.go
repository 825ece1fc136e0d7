package streak

import "time"

// DayKey identifies a UTC calendar day as the number of whole days since
// the Unix epoch. All streak comparisons operate on day keys rather than
// wall-clock deltas, so local timezones and DST transitions cannot split
// or merge days.
type DayKey int

const secondsPerDay = 86400

// DayOf maps an instant to its UTC calendar day.
func DayOf(t time.Time) DayKey {
	secs := t.Unix()
	d := secs / secondsPerDay
	if secs%secondsPerDay < 0 {
		d--
	}
	return DayKey(d)
}

// Diff returns the signed day count b - a.
func Diff(a, b DayKey) int {
	return int(b - a)
}

// Time returns the UTC midnight instant of the day.
func (d DayKey) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

func (d DayKey) String() string {
	return d.Time().Format("2006-01-02")
}
