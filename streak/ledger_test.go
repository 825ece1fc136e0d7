package streak

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLedger(store RecordStore) *Ledger {
	return NewLedger(store, zap.NewNop().Sugar())
}

func TestIsMilestone(t *testing.T) {
	for _, v := range []int{7, 30, 50, 100, 150, 200, 500} {
		require.True(t, IsMilestone(v), "streak %d", v)
	}
	for _, v := range []int{0, -7, 1, 6, 8, 29, 31, 49, 51, 99, 101} {
		require.False(t, IsMilestone(v), "streak %d", v)
	}
}

func TestLedgerAppendsLoginRecord(t *testing.T) {
	store := NewMemoryStore()
	ledger := newTestLedger(store)
	now := at("2024-03-01 09:00")

	appended := ledger.Record(context.Background(), 1, Event{Kind: EventFirstLogin, Streak: 1, Change: 1}, now)
	require.True(t, appended)

	recs := store.Records()
	require.Len(t, recs, 1)
	require.Equal(t, RecordLogin, recs[0].Type)
	require.Equal(t, uint(1), recs[0].UserID)
	require.Equal(t, 1, recs[0].Metadata.Streak)
	require.Equal(t, 1, recs[0].Metadata.StreakChange)
}

func TestLedgerDedupsSameDayLogins(t *testing.T) {
	store := NewMemoryStore()
	ledger := newTestLedger(store)
	ev := Event{Kind: EventGrew, Streak: 3, Change: 1}

	require.True(t, ledger.Record(context.Background(), 1, ev, at("2024-03-01 09:00")))
	// Double-trigger race: same user, same day, second append skipped.
	require.False(t, ledger.Record(context.Background(), 1, ev, at("2024-03-01 18:00")))
	require.Len(t, store.Records(), 1)

	// A different user on the same day is unaffected.
	require.True(t, ledger.Record(context.Background(), 2, ev, at("2024-03-01 09:00")))
	// The same user on the next day appends again.
	require.True(t, ledger.Record(context.Background(), 1, Event{Kind: EventGrew, Streak: 4, Change: 1}, at("2024-03-02 09:00")))
}

func TestLedgerNoOpEventAppendsNothing(t *testing.T) {
	store := NewMemoryStore()
	ledger := newTestLedger(store)

	require.False(t, ledger.Record(context.Background(), 1, Event{Kind: EventNoOp, Streak: 5}, at("2024-03-01 09:00")))
	require.Empty(t, store.Records())
}

func TestLedgerStreakLostRecord(t *testing.T) {
	store := NewMemoryStore()
	ledger := newTestLedger(store)
	ev := Event{Kind: EventReset, Streak: 1, Change: -4, PreviousStreak: 4}

	ledger.Record(context.Background(), 1, ev, at("2024-03-10 09:00"))

	recs := store.Records()
	require.Len(t, recs, 1)
	require.Equal(t, RecordLost, recs[0].Type)
	require.Equal(t, 4, recs[0].Metadata.PreviousStreak)
	require.Equal(t, -4, recs[0].Metadata.StreakChange)
	require.Equal(t, 1, recs[0].Metadata.Streak)
}

func TestLedgerMilestoneFiresOncePerThreshold(t *testing.T) {
	store := NewMemoryStore()
	ledger := newTestLedger(store)

	day := at("2024-03-01 09:00")
	milestones := 0
	for streakVal := 1; streakVal <= 8; streakVal++ {
		kind := EventGrew
		if streakVal == 1 {
			kind = EventFirstLogin
		}
		ledger.Record(context.Background(), 1, Event{Kind: kind, Streak: streakVal, Change: 1}, day)
		day = day.AddDate(0, 0, 1)
	}

	for _, rec := range store.Records() {
		if rec.Type == RecordMilestone {
			milestones++
			require.Equal(t, 7, rec.Metadata.Streak)
			require.True(t, rec.Metadata.Milestone)
		}
	}
	require.Equal(t, 1, milestones)
}

func TestLedgerMilestoneSkippedWhenLoginDeduped(t *testing.T) {
	store := NewMemoryStore()
	ledger := newTestLedger(store)
	day := at("2024-03-07 09:00")
	ev := Event{Kind: EventGrew, Streak: 7, Change: 1}

	require.True(t, ledger.Record(context.Background(), 1, ev, day))
	// A racing duplicate on the milestone day must not double the record.
	require.False(t, ledger.Record(context.Background(), 1, ev, day))

	milestones := 0
	for _, rec := range store.Records() {
		if rec.Type == RecordMilestone {
			milestones++
		}
	}
	require.Equal(t, 1, milestones)
}

// failingRecordStore rejects every append.
type failingRecordStore struct{}

func (failingRecordStore) InsertLoginOnce(context.Context, Record, DayKey) (bool, error) {
	return false, errors.New("storage down")
}

func (failingRecordStore) Insert(context.Context, Record) error {
	return errors.New("storage down")
}

func TestLedgerSwallowsAppendFailures(t *testing.T) {
	ledger := newTestLedger(failingRecordStore{})

	require.NotPanics(t, func() {
		appended := ledger.Record(context.Background(), 1, Event{Kind: EventGrew, Streak: 2, Change: 1}, time.Now())
		require.False(t, appended)
		ledger.Record(context.Background(), 1, Event{Kind: EventReset, Streak: 1, Change: -2, PreviousStreak: 2}, time.Now())
	})
}
