package models

import "time"

// Subscription links a subscriber to a creator. Cancelling flips Active to
// false instead of deleting the row, so re-subscribing reactivates it and
// history survives. Only active rows count for notification fan-out and
// post view gating.
type Subscription struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CreatorID    uint      `json:"creator_id" gorm:"index;uniqueIndex:idx_creator_subscriber"`
	SubscriberID uint      `json:"subscriber_id" gorm:"index;uniqueIndex:idx_creator_subscriber"`
	Active       bool      `json:"active" gorm:"default:true;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
