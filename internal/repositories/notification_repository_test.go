package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fanloft-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func seedNotifications(t *testing.T, db *gorm.DB, recipientID uint, n int, typ string) []models.Notification {
	t.Helper()
	out := make([]models.Notification, n)
	for i := 0; i < n; i++ {
		notif := models.Notification{
			Type:        typ,
			ActorID:     uintPtr(2),
			RecipientID: recipientID,
			Message:     fmt.Sprintf("event %d", i),
			Metadata:    datatypes.NewJSONType(models.NotificationMetadata{PostID: testPostID, Link: "/post/" + testPostID}),
		}
		require.NoError(t, db.Create(&notif).Error)
		out[i] = notif
	}
	return out
}

func TestListByRecipientCursorWalksWithoutOverlap(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresNotificationRepository(db)

	seedNotifications(t, db, 1, 45, models.NotificationTypeCommentNew)

	seen := make(map[uint]bool)
	var cursor uint
	var pages [][]models.Notification
	for {
		page, err := repo.ListByRecipient(1, NotificationListOptions{Cursor: cursor, Limit: 20})
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		pages = append(pages, page)
		for _, n := range page {
			assert.False(t, seen[n.ID], "notification %d returned twice", n.ID)
			seen[n.ID] = true
		}
		cursor = page[len(page)-1].ID
	}

	require.Len(t, pages, 3)
	assert.Len(t, pages[0], 20)
	assert.Len(t, pages[1], 20)
	assert.Len(t, pages[2], 5)
	assert.Len(t, seen, 45)

	// Newest first across the whole walk.
	var prev uint
	for _, page := range pages {
		for _, n := range page {
			if prev != 0 {
				assert.Less(t, n.ID, prev)
			}
			prev = n.ID
		}
	}
}

func TestListByRecipientDoesNotLeakOtherInboxes(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresNotificationRepository(db)

	seedNotifications(t, db, 1, 3, models.NotificationTypePostNew)
	seedNotifications(t, db, 2, 4, models.NotificationTypePostNew)

	page, err := repo.ListByRecipient(1, NotificationListOptions{Limit: 20})
	require.NoError(t, err)
	require.Len(t, page, 3)
	for _, n := range page {
		assert.EqualValues(t, 1, n.RecipientID)
	}
}

func TestListByRecipientTypeAndReadFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresNotificationRepository(db)

	seedNotifications(t, db, 1, 2, models.NotificationTypePostNew)
	replies := seedNotifications(t, db, 1, 3, models.NotificationTypeCommentReply)
	require.NoError(t, repo.MarkAsRead(replies[0].ID, 1))

	page, err := repo.ListByRecipient(1, NotificationListOptions{Limit: 20, Types: []string{models.NotificationTypeCommentReply}})
	require.NoError(t, err)
	assert.Len(t, page, 3)

	unread := false
	page, err = repo.ListByRecipient(1, NotificationListOptions{Limit: 20, Types: []string{models.NotificationTypeCommentReply}, Read: &unread})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	read := true
	page, err = repo.ListByRecipient(1, NotificationListOptions{Limit: 20, Read: &read})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, replies[0].ID, page[0].ID)
}

func TestUnreadCountAndMarkAllAsRead(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresNotificationRepository(db)

	seedNotifications(t, db, 1, 5, models.NotificationTypeCommentNew)
	seedNotifications(t, db, 2, 2, models.NotificationTypeCommentNew)

	count, err := repo.GetUnreadCount(1)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)

	require.NoError(t, repo.MarkAllAsRead(1))

	count, err = repo.GetUnreadCount(1)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Other inboxes untouched.
	count, err = repo.GetUnreadCount(2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestMarkAsReadOwnershipAndIdempotency(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresNotificationRepository(db)

	notifs := seedNotifications(t, db, 1, 1, models.NotificationTypeSubNew)
	id := notifs[0].ID

	// Someone else's inbox cannot mark it.
	err := repo.MarkAsRead(id, 2)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, repo.MarkAsRead(id, 1))
	require.NoError(t, repo.MarkAsRead(id, 1))

	count, err := repo.GetUnreadCount(1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteNotificationOwnership(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresNotificationRepository(db)

	notifs := seedNotifications(t, db, 1, 1, models.NotificationTypePostNew)
	id := notifs[0].ID

	err := repo.DeleteNotification(id, 2)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, repo.DeleteNotification(id, 1))

	err = repo.DeleteNotification(id, 1)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestMetadataRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresNotificationRepository(db)

	meta := models.NotificationMetadata{
		PostID:    testPostID,
		CommentID: 42,
		Link:      "/post/" + testPostID + "?highlight=42",
	}
	notif := models.Notification{
		Type:        models.NotificationTypeCommentReply,
		ActorID:     uintPtr(2),
		RecipientID: 1,
		Message:     "someone replied to your comment",
		Metadata:    datatypes.NewJSONType(meta),
	}
	require.NoError(t, repo.CreateNotification(&notif))

	page, err := repo.ListByRecipient(1, NotificationListOptions{Limit: 20})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, meta, page[0].Metadata.Data())
}
