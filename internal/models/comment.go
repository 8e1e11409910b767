package models

import "time"

// Comment is a node in a post's reply tree, stored flat in PostgreSQL.
// ParentID is nil for top-level comments; replies point at another comment
// on the same post. A soft-deleted comment keeps its row, PostID and
// ParentID so descendant replies stay attached; only Message is cleared.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"size:24;index"` // owning post (MongoDB ObjectID as string)
	AuthorID  *uint     `json:"author_id" gorm:"index"`       // nil if the author account was removed
	ParentID  *uint     `json:"parent_id" gorm:"index"`       // nil means top-level
	Message   *string   `json:"message"`                      // nil iff soft-deleted
	Deleted   bool      `json:"deleted" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentView is a comment annotated for display: live like count, whether
// the requesting user liked it, and the author summary. Enough for the
// client to rebuild the tree without further calls.
type CommentView struct {
	Comment
	LikeCount int64        `json:"like_count"`
	LikedByMe bool         `json:"liked_by_me"`
	Author    *UserCompact `json:"author,omitempty"`
}

// CreateCommentRequest defines the request body for creating a comment or reply
type CreateCommentRequest struct {
	Message  string `json:"message" validate:"required,min=1,max=500"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

// UpdateCommentRequest defines the request body for editing a comment
type UpdateCommentRequest struct {
	Message string `json:"message" validate:"required,min=1,max=500"`
}
