package models

import "time"

// Notification types. Only NotificationTypeComment is produced by the
// fan-out path today; the remaining kinds are reserved for the same wire
// shape.
const (
	NotificationTypeComment     = "comment"
	NotificationTypeReply       = "reply"
	NotificationTypeLikePost    = "like_post"
	NotificationTypeLikeComment = "like_comment"
	NotificationTypeSystem      = "system"
)

// Notification is a per-user message derived from an engagement event. Rows
// are created once by the fan-out and only ever mutated to flip IsRead.
type Notification struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"index;not null" json:"user_id"`
	NotificationType string    `gorm:"size:20;not null" json:"type"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	Message          string    `gorm:"type:text;not null" json:"message"`
	RelatedPostID    *uint     `json:"related_post_id"`
	RelatedCommentID *uint     `json:"related_comment_id"`
	IsRead           bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt        time.Time `json:"created_date"`
}
