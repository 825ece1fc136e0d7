package streak

// EventKind names the semantic transition produced by an evaluation.
type EventKind string

const (
	// EventNoOp means the streak was already up to date for today.
	EventNoOp EventKind = "noop"
	// EventFirstLogin is the very first recorded engagement for a user.
	EventFirstLogin EventKind = "first_login"
	// EventGrew means the streak extended by exactly one day.
	EventGrew EventKind = "grew"
	// EventReset means a gap of two or more days broke the streak.
	EventReset EventKind = "reset"
)

// Event describes the outcome of a single evaluation.
type Event struct {
	Kind   EventKind
	Streak int
	// Change is the user-visible delta: +1 on growth, -previous on a
	// reset that lost a positive streak, 0 on no-op.
	Change int
	// PreviousStreak is set on EventReset only.
	PreviousStreak int
}

// Mutating reports whether the event carries a state change that must be
// persisted.
func (e Event) Mutating() bool {
	return e.Kind != EventNoOp
}
