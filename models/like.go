package models

import "time"

// Like target kinds.
const (
	LikeTargetPost    = "post"
	LikeTargetComment = "comment"
)

// Like records that a user likes a post or a comment. The composite unique
// index makes the (user, target) tuple the unit of toggling: concurrent
// inserts for the same tuple collide at the storage layer instead of
// producing duplicates.
type Like struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex:idx_like_tuple;not null" json:"user_id"`
	TargetType string    `gorm:"uniqueIndex:idx_like_tuple;size:10;not null" json:"target_type"`
	TargetID   uint      `gorm:"uniqueIndex:idx_like_tuple;index;not null" json:"target_id"`
	CreatedAt  time.Time `json:"created_at"`
}
