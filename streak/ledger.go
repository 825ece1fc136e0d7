package streak

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Activity record types produced by the ledger. Other subsystems append
// their own types (task_created, task_completed, ...) directly.
const (
	RecordLogin     = "login"
	RecordMilestone = "streak_milestone"
	RecordLost      = "streak_lost"
)

// IsMilestone reports whether a streak value is a celebration threshold:
// 7, 30, or any multiple of 50.
func IsMilestone(streak int) bool {
	if streak <= 0 {
		return false
	}
	return streak == 7 || streak == 30 || streak%50 == 0
}

// Ledger appends semantic streak events to the activity history. The
// history is best-effort telemetry: append failures are logged and never
// propagated, because the streak state itself has already been committed
// by the time the ledger runs.
type Ledger struct {
	records RecordStore
	log     *zap.SugaredLogger
}

func NewLedger(records RecordStore, log *zap.SugaredLogger) *Ledger {
	return &Ledger{records: records, log: log}
}

// Record translates an evaluation event into ledger entries. It returns
// true when a login record was appended, false when the event produced
// none or the day's record already existed (double-trigger race).
func (l *Ledger) Record(ctx context.Context, userID uint, ev Event, now time.Time) bool {
	switch ev.Kind {
	case EventFirstLogin, EventGrew:
		appended, err := l.records.InsertLoginOnce(ctx, Record{
			UserID:      userID,
			Type:        RecordLogin,
			Description: fmt.Sprintf("Logged in, %d day streak", ev.Streak),
			Metadata:    Metadata{Streak: ev.Streak, StreakChange: ev.Change},
			CreatedAt:   now,
		}, DayOf(now))
		if err != nil {
			l.log.Warnw("login record append failed", "user_id", userID, "err", err)
			return false
		}
		if appended && IsMilestone(ev.Streak) {
			l.milestone(ctx, userID, ev.Streak, now)
		}
		return appended

	case EventReset:
		if ev.PreviousStreak <= 0 {
			return false
		}
		err := l.records.Insert(ctx, Record{
			UserID:      userID,
			Type:        RecordLost,
			Description: fmt.Sprintf("Streak of %d days lost", ev.PreviousStreak),
			Metadata: Metadata{
				Streak:         ev.Streak,
				StreakChange:   ev.Change,
				PreviousStreak: ev.PreviousStreak,
			},
			CreatedAt: now,
		})
		if err != nil {
			l.log.Warnw("streak_lost record append failed", "user_id", userID, "err", err)
		}
		return false

	default:
		return false
	}
}

// milestone appends the one-time celebration record. It piggybacks on the
// login dedup: a milestone only fires on the call that appended the day's
// login record, so it cannot repeat while the streak sits at the value.
func (l *Ledger) milestone(ctx context.Context, userID uint, streak int, now time.Time) {
	err := l.records.Insert(ctx, Record{
		UserID:      userID,
		Type:        RecordMilestone,
		Description: fmt.Sprintf("Reached a %d day streak", streak),
		Metadata:    Metadata{Streak: streak, Milestone: true},
		CreatedAt:   now,
	})
	if err != nil {
		l.log.Warnw("milestone record append failed", "user_id", userID, "streak", streak, "err", err)
	}
}
