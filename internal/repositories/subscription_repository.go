package repositories

import (
	"context"
	"errors"

	"github.com/fanloft-app/backend/internal/models"
	"gorm.io/gorm"
)

// ErrAlreadySubscribed is returned when an active subscription already exists.
var ErrAlreadySubscribed = errors.New("already subscribed")

// SubscriptionRepository defines the interface for subscription operations.
// The context-taking queries are the ones invoked on request paths with a
// bounded timeout (fan-out recipient listing, post view gating).
type SubscriptionRepository interface {
	Subscribe(creatorID, subscriberID uint) (*models.Subscription, error)
	Cancel(creatorID, subscriberID uint) error
	IsActiveSubscriber(ctx context.Context, creatorID, subscriberID uint) (bool, error)
	ListActiveSubscribers(ctx context.Context, creatorID uint) ([]models.Subscription, error)
	ListActiveCreatorIDs(subscriberID uint) ([]uint, error)
}

type postgresSubscriptionRepository struct {
	db *gorm.DB
}

func NewPostgresSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &postgresSubscriptionRepository{db: db}
}

// Subscribe creates the subscription, or reactivates a previously cancelled
// row for the same pair. An already-active subscription is a conflict.
func (r *postgresSubscriptionRepository) Subscribe(creatorID, subscriberID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("creator_id = ? AND subscriber_id = ?", creatorID, subscriberID).First(&sub).Error
	switch {
	case err == nil:
		if sub.Active {
			return nil, ErrAlreadySubscribed
		}
		sub.Active = true
		if err := r.db.Save(&sub).Error; err != nil {
			return nil, err
		}
		return &sub, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = models.Subscription{CreatorID: creatorID, SubscriberID: subscriberID, Active: true}
		if err := r.db.Create(&sub).Error; err != nil {
			return nil, err
		}
		return &sub, nil
	default:
		return nil, err
	}
}

// Cancel deactivates the subscription. The row is kept for history.
func (r *postgresSubscriptionRepository) Cancel(creatorID, subscriberID uint) error {
	res := r.db.Model(&models.Subscription{}).
		Where("creator_id = ? AND subscriber_id = ? AND active = ?", creatorID, subscriberID, true).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *postgresSubscriptionRepository) IsActiveSubscriber(ctx context.Context, creatorID, subscriberID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("creator_id = ? AND subscriber_id = ? AND active = ?", creatorID, subscriberID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *postgresSubscriptionRepository) ListActiveSubscribers(ctx context.Context, creatorID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("creator_id = ? AND active = ?", creatorID, true).
		Find(&subs).Error
	return subs, err
}

func (r *postgresSubscriptionRepository) ListActiveCreatorIDs(subscriberID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Subscription{}).
		Where("subscriber_id = ? AND active = ?", subscriberID, true).
		Pluck("creator_id", &ids).Error
	return ids, err
}
