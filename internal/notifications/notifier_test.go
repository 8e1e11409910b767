package notifications

import (
	"context"
	"fmt"
	"testing"

	"github.com/fanloft-app/backend/internal/models"
	"github.com/fanloft-app/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db       *gorm.DB
	notifier *Notifier
	notifs   repositories.NotificationRepository
	subs     repositories.SubscriptionRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A fresh in-memory database exists per connection; pin the pool to one
	// so the fan-out workers all see the migrated schema.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Subscription{}, &models.Notification{}))

	notifRepo := repositories.NewPostgresNotificationRepository(db)
	subRepo := repositories.NewPostgresSubscriptionRepository(db)
	return &fixture{
		db:       db,
		notifier: New(notifRepo, subRepo, zap.NewNop()),
		notifs:   notifRepo,
		subs:     subRepo,
	}
}

func (f *fixture) inbox(t *testing.T, recipientID uint) []models.Notification {
	t.Helper()
	page, err := f.notifs.ListByRecipient(recipientID, repositories.NotificationListOptions{Limit: 50})
	require.NoError(t, err)
	return page
}

func creator(id uint, name string) *models.User {
	return &models.User{ID: id, Username: name, Role: models.RoleCreator}
}

func post(authorID uint) *models.Post {
	return &models.Post{ID: primitive.NewObjectID(), AuthorID: authorID, Title: "update", Body: "hello"}
}

func TestPostPublishedFansOutToActiveSubscribers(t *testing.T) {
	f := newFixture(t)
	author := creator(1, "alice")

	for i := uint(2); i <= 21; i++ {
		_, err := f.subs.Subscribe(author.ID, i)
		require.NoError(t, err)
	}
	require.NoError(t, f.subs.Cancel(author.ID, 5))

	p := post(author.ID)
	f.notifier.PostPublished(context.Background(), author, p)

	var total int64
	require.NoError(t, f.db.Model(&models.Notification{}).Count(&total).Error)
	assert.EqualValues(t, 19, total)

	assert.Empty(t, f.inbox(t, 5), "cancelled subscriber gets nothing")
	assert.Empty(t, f.inbox(t, author.ID), "the author gets nothing")

	got := f.inbox(t, 2)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationTypePostNew, got[0].Type)
	assert.Equal(t, "alice posted a new update", got[0].Message)
	meta := got[0].Metadata.Data()
	assert.Equal(t, p.ID.Hex(), meta.PostID)
	assert.Equal(t, "/post/"+p.ID.Hex(), meta.Link)
}

func TestPostPublishedAbortsWhenSubscriberQueryFails(t *testing.T) {
	f := newFixture(t)
	author := creator(1, "alice")
	_, err := f.subs.Subscribe(author.ID, 2)
	require.NoError(t, err)

	// The recipient query runs under a bounded deadline derived from the
	// caller's context; a dead context means no fan-out and no error
	// surfaced to the publisher.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.notifier.PostPublished(ctx, author, post(author.ID))

	var total int64
	require.NoError(t, f.db.Model(&models.Notification{}).Count(&total).Error)
	assert.Zero(t, total)
}

func TestPostPublishedWithoutSubscribersIsNoop(t *testing.T) {
	f := newFixture(t)

	f.notifier.PostPublished(context.Background(), creator(1, "alice"), post(1))

	var total int64
	require.NoError(t, f.db.Model(&models.Notification{}).Count(&total).Error)
	assert.Zero(t, total)
}

func TestTopLevelCommentNotifiesPostAuthor(t *testing.T) {
	f := newFixture(t)
	p := post(1)
	actor := &models.User{ID: 2, Username: "bob"}
	msg := "nice post"
	comment := &models.Comment{ID: 7, PostID: p.ID.Hex(), AuthorID: &actor.ID, Message: &msg}

	f.notifier.CommentCreated(actor, comment, p, nil)

	got := f.inbox(t, 1)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationTypeCommentNew, got[0].Type)
	require.NotNil(t, got[0].ActorID)
	assert.Equal(t, actor.ID, *got[0].ActorID)
	assert.Equal(t, "bob commented on your post", got[0].Message)

	meta := got[0].Metadata.Data()
	assert.Equal(t, uint(7), meta.CommentID)
	assert.Equal(t, fmt.Sprintf("/post/%s?highlight=7", p.ID.Hex()), meta.Link)
}

func TestCommentOnOwnPostIsSuppressed(t *testing.T) {
	f := newFixture(t)
	p := post(1)
	actor := &models.User{ID: 1, Username: "alice"}
	msg := "first!"
	comment := &models.Comment{ID: 7, PostID: p.ID.Hex(), AuthorID: &actor.ID, Message: &msg}

	f.notifier.CommentCreated(actor, comment, p, nil)

	assert.Empty(t, f.inbox(t, 1))
}

func TestReplyNotifiesOnlyParentAuthor(t *testing.T) {
	f := newFixture(t)

	// Post by 1, top-level comment by 2, reply by 3. Only 2 hears about the
	// reply; the post author does not.
	p := post(1)
	parentAuthor := uint(2)
	parentMsg := "nice post"
	parent := &models.Comment{ID: 7, PostID: p.ID.Hex(), AuthorID: &parentAuthor, Message: &parentMsg}

	actor := &models.User{ID: 3, Username: "carol"}
	replyMsg := "agreed"
	reply := &models.Comment{ID: 8, PostID: p.ID.Hex(), AuthorID: &actor.ID, ParentID: &parent.ID, Message: &replyMsg}

	f.notifier.CommentCreated(actor, reply, p, parent)

	assert.Empty(t, f.inbox(t, 1), "post author is not notified of replies")

	got := f.inbox(t, 2)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationTypeCommentReply, got[0].Type)
	assert.Equal(t, "carol replied to your comment", got[0].Message)

	meta := got[0].Metadata.Data()
	assert.Equal(t, reply.ID, meta.CommentID, "link targets the new reply, not the parent")
	assert.Equal(t, fmt.Sprintf("/post/%s?highlight=%d", p.ID.Hex(), reply.ID), meta.Link)
}

func TestReplyToOwnCommentIsSuppressed(t *testing.T) {
	f := newFixture(t)
	p := post(1)
	actor := &models.User{ID: 2, Username: "bob"}
	parentMsg := "thread starter"
	parent := &models.Comment{ID: 7, PostID: p.ID.Hex(), AuthorID: &actor.ID, Message: &parentMsg}
	replyMsg := "following up"
	reply := &models.Comment{ID: 8, PostID: p.ID.Hex(), AuthorID: &actor.ID, ParentID: &parent.ID, Message: &replyMsg}

	f.notifier.CommentCreated(actor, reply, p, parent)

	var total int64
	require.NoError(t, f.db.Model(&models.Notification{}).Count(&total).Error)
	assert.Zero(t, total)
}

func TestReplyToOrphanedParentIsDropped(t *testing.T) {
	f := newFixture(t)
	p := post(1)
	actor := &models.User{ID: 3, Username: "carol"}
	parentID := uint(7)
	parentMsg := "was deleted with its author"
	parent := &models.Comment{ID: parentID, PostID: p.ID.Hex(), AuthorID: nil, Message: &parentMsg}
	replyMsg := "hello?"
	reply := &models.Comment{ID: 8, PostID: p.ID.Hex(), AuthorID: &actor.ID, ParentID: &parentID, Message: &replyMsg}

	f.notifier.CommentCreated(actor, reply, p, parent)

	var total int64
	require.NoError(t, f.db.Model(&models.Notification{}).Count(&total).Error)
	assert.Zero(t, total)
}

func TestSubscribedNotifiesCreator(t *testing.T) {
	f := newFixture(t)
	subscriber := &models.User{ID: 2, Username: "bob"}

	f.notifier.Subscribed(subscriber, 1)

	got := f.inbox(t, 1)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationTypeSubNew, got[0].Type)
	assert.Equal(t, "bob subscribed to you", got[0].Message)
	assert.Equal(t, "/creator/1", got[0].Metadata.Data().Link)
}

func TestCommentThreadScenario(t *testing.T) {
	f := newFixture(t)

	// Alice posts; Bob comments; Carol replies to Bob; Alice replies to
	// Carol. Each event notifies exactly one other participant.
	alice := creator(1, "alice")
	bob := &models.User{ID: 2, Username: "bob"}
	carol := &models.User{ID: 3, Username: "carol"}
	p := post(alice.ID)

	bobMsg := "great post"
	bobComment := &models.Comment{ID: 1, PostID: p.ID.Hex(), AuthorID: &bob.ID, Message: &bobMsg}
	f.notifier.CommentCreated(bob, bobComment, p, nil)

	carolMsg := "agreed"
	carolReply := &models.Comment{ID: 2, PostID: p.ID.Hex(), AuthorID: &carol.ID, ParentID: &bobComment.ID, Message: &carolMsg}
	f.notifier.CommentCreated(carol, carolReply, p, bobComment)

	aliceMsg := "thanks both"
	aliceReply := &models.Comment{ID: 3, PostID: p.ID.Hex(), AuthorID: &alice.ID, ParentID: &carolReply.ID, Message: &aliceMsg}
	f.notifier.CommentCreated(alice, aliceReply, p, carolReply)

	aliceInbox := f.inbox(t, alice.ID)
	require.Len(t, aliceInbox, 1)
	assert.Equal(t, models.NotificationTypeCommentNew, aliceInbox[0].Type)

	bobInbox := f.inbox(t, bob.ID)
	require.Len(t, bobInbox, 1)
	assert.Equal(t, models.NotificationTypeCommentReply, bobInbox[0].Type)
	assert.Equal(t, carolReply.ID, bobInbox[0].Metadata.Data().CommentID)

	carolInbox := f.inbox(t, carol.ID)
	require.Len(t, carolInbox, 1)
	assert.Equal(t, models.NotificationTypeCommentReply, carolInbox[0].Type)
	require.NotNil(t, carolInbox[0].ActorID)
	assert.Equal(t, alice.ID, *carolInbox[0].ActorID)
}
