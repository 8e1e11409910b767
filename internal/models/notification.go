package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types. The set is closed; billing events reuse the same
// store and shape under sub:* when they land.
const (
	NotificationTypePostNew      = "post:new"
	NotificationTypeCommentNew   = "comment:new"
	NotificationTypeCommentReply = "comment:reply"
	NotificationTypeSubNew       = "sub:new"
)

// NotificationMetadata carries the jump target and type-specific extras.
// Link is resolved before persistence: when the producer leaves it empty it
// is derived from the type and ids, never stored absent.
type NotificationMetadata struct {
	PostID    string  `json:"postId,omitempty"`
	CommentID uint    `json:"commentId,omitempty"`
	CreatorID uint    `json:"creatorId,omitempty"`
	Status    string  `json:"status,omitempty"` // e.g. 'paid'|'failed'|'expired' for sub:* events
	Amount    float64 `json:"amount,omitempty"`
	Link      string  `json:"link,omitempty"`
}

// Notification is a per-recipient inbox record (PostgreSQL). Message is
// denormalized at creation time and never recomputed. The monotonic ID
// doubles as the inbox pagination cursor.
type Notification struct {
	ID          uint                                       `json:"id" gorm:"primaryKey"`
	Type        string                                     `json:"type" gorm:"size:30;index"`
	ActorID     *uint                                      `json:"actor_id" gorm:"index"` // who caused it, nil for system events
	RecipientID uint                                       `json:"recipient_id" gorm:"index"`
	Message     string                                     `json:"message"`
	Metadata    datatypes.JSONType[NotificationMetadata]   `json:"metadata"`
	IsRead      bool                                       `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time                                  `json:"created_at" gorm:"index"`
}
