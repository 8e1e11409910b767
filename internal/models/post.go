package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attachment is an uploaded media reference on a post.
type Attachment struct {
	URL      string `json:"url" bson:"url"`
	PublicID string `json:"public_id,omitempty" bson:"public_id,omitempty"`
}

// Post is a creator's content entry stored in MongoDB. Like and comment
// counts are not stored here; they are recomputed from the PostgreSQL
// stores whenever a post is rendered.
type Post struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID    uint               `json:"author_id" bson:"author_id"`
	Title       string             `json:"title" bson:"title"`
	Body        string             `json:"body" bson:"body"`
	Attachments []Attachment       `json:"attachments,omitempty" bson:"attachments,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// PostView is a post enriched for display.
type PostView struct {
	Post
	LikeCount    int64        `json:"like_count"`
	CommentCount int64        `json:"comment_count"`
	LikedByMe    bool         `json:"liked_by_me"`
	Author       *UserCompact `json:"author,omitempty"`
}

// CreatePostRequest defines the request body for publishing a post
type CreatePostRequest struct {
	Title       string       `json:"title" validate:"required,min=1,max=200"`
	Body        string       `json:"body" validate:"required,min=1,max=2000"`
	Attachments []Attachment `json:"attachments,omitempty" validate:"omitempty,dive"`
}

// UpdatePostRequest defines the request body for editing a post
type UpdatePostRequest struct {
	Title       string       `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Body        string       `json:"body,omitempty" validate:"omitempty,min=1,max=2000"`
	Attachments []Attachment `json:"attachments,omitempty" validate:"omitempty,dive"`
}
