package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a student account. Passwords are stored as bcrypt
// hashes only. The streak fields are owned by the streak engine and are
// never written directly by handlers; StreakVersion guards the
// read-evaluate-write cycle against concurrent triggers.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Username      string         `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email         string         `gorm:"size:255" json:"email"`
	PasswordHash  string         `gorm:"size:255" json:"-"`
	AvatarURL     string         `gorm:"size:512" json:"avatar_url"`
	Streak        int            `gorm:"default:0" json:"streak"`
	LastLoginDay  *time.Time     `gorm:"type:date" json:"last_login_day"`
	StreakVersion int64          `gorm:"default:0" json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Tasks         []Task         `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes the UpdatedAt timestamp.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
