package repositories

import (
	"time"

	"github.com/fanloft-app/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationListOptions filters an inbox page. Cursor is an exclusive
// upper bound on the notification id: rows inserted during traversal get
// higher ids and never leak into an in-progress older page.
type NotificationListOptions struct {
	Cursor uint     // 0 means "from the newest"
	Limit  int      // 1..50
	Types  []string // empty means all types
	Read   *bool    // nil means both read states
}

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	ListByRecipient(recipientID uint, opts NotificationListOptions) ([]models.Notification, error)
	GetGrouped(recipientID uint) (today, yesterday, thisWeek, older []models.Notification, err error)
	GetUnreadCount(recipientID uint) (int64, error)
	MarkAsRead(id, recipientID uint) error
	MarkAllAsRead(recipientID uint) error
	DeleteNotification(id, recipientID uint) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// ListByRecipient returns a newest-first page ordered by id.
func (r *postgresNotificationRepository) ListByRecipient(recipientID uint, opts NotificationListOptions) ([]models.Notification, error) {
	q := r.db.Where("recipient_id = ?", recipientID)
	if opts.Cursor > 0 {
		q = q.Where("id < ?", opts.Cursor)
	}
	if len(opts.Types) > 0 {
		q = q.Where("type IN ?", opts.Types)
	}
	if opts.Read != nil {
		q = q.Where("is_read = ?", *opts.Read)
	}

	var notifications []models.Notification
	err := q.Order("id DESC").Limit(opts.Limit).Find(&notifications).Error
	return notifications, err
}

// GetGrouped buckets a recipient's notifications by age for the inbox UI.
func (r *postgresNotificationRepository) GetGrouped(recipientID uint) (today, yesterday, thisWeek, older []models.Notification, retErr error) {
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)

	if err := r.db.Where("recipient_id = ? AND created_at >= ?", recipientID, todayStart).
		Order("id DESC").Find(&today).Error; err != nil {
		return nil, nil, nil, nil, err
	}
	if err := r.db.Where("recipient_id = ? AND created_at >= ? AND created_at < ?", recipientID, yesterdayStart, todayStart).
		Order("id DESC").Find(&yesterday).Error; err != nil {
		return nil, nil, nil, nil, err
	}
	if err := r.db.Where("recipient_id = ? AND created_at >= ? AND created_at < ?", recipientID, weekStart, yesterdayStart).
		Order("id DESC").Find(&thisWeek).Error; err != nil {
		return nil, nil, nil, nil, err
	}
	if err := r.db.Where("recipient_id = ? AND created_at < ?", recipientID, weekStart).
		Order("id DESC").Limit(50).Find(&older).Error; err != nil {
		return nil, nil, nil, nil, err
	}

	return today, yesterday, thisWeek, older, nil
}

func (r *postgresNotificationRepository) GetUnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("recipient_id = ? AND is_read = ?", recipientID, false).Count(&count).Error
	return count, err
}

// MarkAsRead flips is_read for a notification owned by the recipient.
// Marking an already-read notification succeeds silently; an id that does
// not exist or belongs to someone else is not found.
func (r *postgresNotificationRepository) MarkAsRead(id, recipientID uint) error {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(recipientID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
}

// DeleteNotification hard-deletes a notification owned by the recipient.
func (r *postgresNotificationRepository) DeleteNotification(id, recipientID uint) error {
	res := r.db.Where("id = ? AND recipient_id = ?", id, recipientID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
