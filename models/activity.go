package models

import "time"

// Activity record types. The streak engine produces login,
// streak_milestone and streak_lost; task handlers produce the task_*
// types.
const (
	ActivityLogin         = "login"
	ActivityMilestone     = "streak_milestone"
	ActivityStreakLost    = "streak_lost"
	ActivityTaskCreated   = "task_created"
	ActivityTaskCompleted = "task_completed"
	ActivityTaskUpdated   = "task_updated"
)

// ActivityMetadata is the structured payload attached to a record,
// serialized as JSON in a single column.
type ActivityMetadata struct {
	Streak         int  `json:"streak,omitempty"`
	StreakChange   int  `json:"streak_change,omitempty"`
	PreviousStreak int  `json:"previous_streak,omitempty"`
	Milestone      bool `json:"milestone,omitempty"`
}

// Activity is an immutable, append-only record in the user's activity
// feed. DedupKey carries a unique index: login records use the
// deterministic key login:<user>:<day> so at most one login row can exist
// per user per calendar day, every other type gets a random UUID.
type Activity struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"index;not null" json:"user_id"`
	Type        string           `gorm:"size:32;index;not null" json:"type"`
	Description string           `gorm:"size:255" json:"description"`
	DedupKey    string           `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Metadata    ActivityMetadata `gorm:"serializer:json" json:"metadata"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
}
