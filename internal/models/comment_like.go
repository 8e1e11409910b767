package models

import "time"

// CommentLike is one row per (user, comment). The composite unique index is
// the source of truth for "at most one like per pair"; concurrent toggles
// collide on it rather than racing in application code.
type CommentLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CommentID uint      `json:"comment_id" gorm:"index;uniqueIndex:idx_comment_user_like"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_comment_user_like"`
	CreatedAt time.Time `json:"created_at"`
}
