package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a platform account. Credentials live with the identity
// provider; this service only reads identity and moderation state.
type User struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Username   string         `gorm:"size:64;not null" json:"username"`
	Email      string         `gorm:"size:255" json:"email"`
	AvatarURL  string         `gorm:"size:512" json:"avatar_url"`
	IsBanned   bool           `gorm:"default:false" json:"is_banned"`
	BanReason  string         `gorm:"size:255" json:"ban_reason,omitempty"`
	BanExpires *time.Time     `json:"ban_expires,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Comments   []Comment      `json:"-"`
	Posts      []Post         `json:"-"`
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

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
