package streak

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studypulse/studypulse/models"
)

// ErrVersionConflict is returned by StateStore.Save when the persisted
// version moved between Load and Save; the caller should re-read and
// re-evaluate.
var ErrVersionConflict = errors.New("streak: state version conflict")

// StateStore loads and saves per-user streak state. Save is guarded by an
// optimistic version so concurrent read-evaluate-write sequences for the
// same user serialize: exactly one writer wins, the rest observe the
// updated state on retry and fall into the no-op branch.
type StateStore interface {
	Load(ctx context.Context, userID uint) (State, int64, error)
	Save(ctx context.Context, userID uint, state State, version int64) error
}

// Record is an activity ledger entry before persistence.
type Record struct {
	UserID      uint
	Type        string
	Description string
	Metadata    Metadata
	CreatedAt   time.Time
}

// Metadata carries the streak numbers attached to a ledger record.
type Metadata struct {
	Streak         int  `json:"streak,omitempty"`
	StreakChange   int  `json:"streak_change,omitempty"`
	PreviousStreak int  `json:"previous_streak,omitempty"`
	Milestone      bool `json:"milestone,omitempty"`
}

// RecordStore persists activity records. InsertLoginOnce must be an
// atomic insert-if-absent on (user, login, day); a separate
// read-then-insert would race under concurrent triggers.
type RecordStore interface {
	InsertLoginOnce(ctx context.Context, rec Record, day DayKey) (bool, error)
	Insert(ctx context.Context, rec Record) error
}

// GormStore implements StateStore and RecordStore on the application's
// MySQL schema: users.streak / users.last_login_day / users.streak_version,
// login_days rows, and activities rows.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Load reads the streak fields and the bounded login-day history.
func (s *GormStore) Load(ctx context.Context, userID uint) (State, int64, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Select("id", "streak", "last_login_day", "streak_version").
		First(&user, userID).Error; err != nil {
		return State{}, 0, fmt.Errorf("load streak state for user %d: %w", userID, err)
	}

	var rows []models.LoginDay
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("day ASC").
		Limit(HistoryLimit).
		Find(&rows).Error; err != nil {
		return State{}, 0, fmt.Errorf("load login days for user %d: %w", userID, err)
	}

	state := State{Streak: user.Streak, LoginDays: make([]DayKey, 0, len(rows))}
	if user.LastLoginDay != nil {
		d := DayOf(*user.LastLoginDay)
		state.LastLoginDay = &d
	}
	for _, row := range rows {
		state.LoginDays = append(state.LoginDays, DayOf(row.Day))
	}
	return state, user.StreakVersion, nil
}

// Save commits the next state in one transaction, guarded by the version
// read at Load time. A zero-row update means another writer won the race.
func (s *GormStore) Save(ctx context.Context, userID uint, state State, version int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"streak":         state.Streak,
			"streak_version": version + 1,
			"updated_at":     time.Now(),
		}
		if state.LastLoginDay != nil {
			updates["last_login_day"] = state.LastLoginDay.Time()
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND streak_version = ?", userID, version).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("save streak state for user %d: %w", userID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if state.LastLoginDay != nil {
			day := state.LastLoginDay.Time()
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.LoginDay{UserID: userID, Day: day}).Error; err != nil {
				return fmt.Errorf("record login day for user %d: %w", userID, err)
			}
			cutoff := state.LastLoginDay.Time().AddDate(0, 0, -(HistoryLimit - 1))
			if err := tx.Where("user_id = ? AND day < ?", userID, cutoff).
				Delete(&models.LoginDay{}).Error; err != nil {
				return fmt.Errorf("evict login days for user %d: %w", userID, err)
			}
		}
		return nil
	})
}

// InsertLoginOnce appends a login record unless one already exists for the
// user and day. The dedup key column carries a unique index, so the check
// and the insert are a single atomic statement.
func (s *GormStore) InsertLoginOnce(ctx context.Context, rec Record, day DayKey) (bool, error) {
	row := activityRow(rec)
	row.DedupKey = fmt.Sprintf("login:%d:%s", rec.UserID, day)
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return false, fmt.Errorf("insert login record for user %d: %w", rec.UserID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Insert appends a record unconditionally.
func (s *GormStore) Insert(ctx context.Context, rec Record) error {
	row := activityRow(rec)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert %s record for user %d: %w", rec.Type, rec.UserID, err)
	}
	return nil
}

func activityRow(rec Record) models.Activity {
	return models.Activity{
		UserID:      rec.UserID,
		Type:        rec.Type,
		Description: rec.Description,
		DedupKey:    uuid.NewString(),
		Metadata: models.ActivityMetadata{
			Streak:         rec.Metadata.Streak,
			StreakChange:   rec.Metadata.StreakChange,
			PreviousStreak: rec.Metadata.PreviousStreak,
			Milestone:      rec.Metadata.Milestone,
		},
		CreatedAt: rec.CreatedAt,
	}
}
