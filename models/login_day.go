package models

import "time"

// LoginDay is one entry of a user's bounded engagement-day history. The
// unique (user_id, day) index makes the insert naturally idempotent; the
// streak store evicts rows older than the retention window.
type LoginDay struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;index:idx_login_user_day,unique;not null" json:"user_id"`
	Day       time.Time `gorm:"type:date;index:idx_login_user_day,unique;not null" json:"day"`
	CreatedAt time.Time `json:"created_at"`
}
