package streak

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrRetriesExhausted is returned when every save attempt lost the
// optimistic version race. The condition is recoverable: the winning
// writer already advanced the state, so the next trigger lands in the
// no-op branch.
var ErrRetriesExhausted = errors.New("streak: concurrent update retries exhausted")

const saveAttempts = 3

// Result is what trigger adapters surface to their callers.
type Result struct {
	Streak       int  `json:"streak"`
	StreakChange int  `json:"streak_change"`
	IsNewLogin   bool `json:"is_new_login"`
}

// Service runs the read-evaluate-write sequence for a user as one logical
// transaction: a per-user lock narrows contention, an optimistic version
// CAS on save guarantees a single writer, and losing writers re-read so
// they deterministically observe the no-op branch.
type Service struct {
	states StateStore
	ledger *Ledger
	locks  Locker
	log    *zap.SugaredLogger
}

func NewService(states StateStore, ledger *Ledger, locks Locker, log *zap.SugaredLogger) *Service {
	return &Service{states: states, ledger: ledger, locks: locks, log: log}
}

// Evaluate advances the user's streak for the given instant. Every
// trigger adapter (login, dashboard mount, task completion, rollover
// poll) funnels through here.
func (s *Service) Evaluate(ctx context.Context, userID uint, now time.Time) (Result, error) {
	if release, ok := s.locks.Acquire(ctx, userID); ok {
		defer release()
	}

	for attempt := 0; attempt < saveAttempts; attempt++ {
		state, version, err := s.states.Load(ctx, userID)
		if err != nil {
			return Result{}, err
		}

		next, event := Evaluate(state, now)
		if !event.Mutating() {
			return resultOf(event), nil
		}

		if err := s.states.Save(ctx, userID, next, version); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				s.log.Debugw("streak save conflict, retrying",
					"user_id", userID, "attempt", attempt+1)
				continue
			}
			return Result{}, err
		}

		// State is committed; the ledger append is best-effort and must
		// not undo or fail the evaluation.
		s.ledger.Record(ctx, userID, event, now)
		s.log.Infow("streak updated",
			"user_id", userID, "event", event.Kind, "streak", event.Streak)
		return resultOf(event), nil
	}

	return Result{}, ErrRetriesExhausted
}

// NeedsEvaluation is the cheap day-rollover check for the periodic client
// poll: it reads state without taking locks and reports whether a full
// evaluation would mutate anything.
func (s *Service) NeedsEvaluation(ctx context.Context, userID uint, now time.Time) (bool, error) {
	state, _, err := s.states.Load(ctx, userID)
	if err != nil {
		return false, err
	}
	if state.LastLoginDay == nil {
		return true, nil
	}
	return Diff(*state.LastLoginDay, DayOf(now)) > 0, nil
}

// Status returns the current streak without evaluating.
func (s *Service) Status(ctx context.Context, userID uint) (State, error) {
	state, _, err := s.states.Load(ctx, userID)
	return state, err
}

func resultOf(ev Event) Result {
	return Result{
		Streak:       ev.Streak,
		StreakChange: ev.Change,
		IsNewLogin:   ev.Kind != EventNoOp,
	}
}
