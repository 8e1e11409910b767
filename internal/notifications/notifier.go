// Package notifications generates inbox records for content events: new
// posts, new comments and replies, new subscriptions. Every entry point is
// best-effort: callers invoke it after their primary write has committed
// (usually in a goroutine), failures are logged and swallowed, and a failed
// delivery to one recipient never blocks the others.
package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fanloft-app/backend/internal/models"
	"github.com/fanloft-app/backend/internal/repositories"
	"github.com/gammazero/workerpool"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const defaultFanoutWorkers = 8

// subscriberQueryTimeout bounds the recipient listing backing a post
// fan-out. Hitting it drops the whole fan-out, which is acceptable for a
// best-effort delivery.
const subscriberQueryTimeout = 2 * time.Second

// Notifier computes the recipient set for each event type and writes one
// notification per recipient.
type Notifier struct {
	notifications repositories.NotificationRepository
	subscriptions repositories.SubscriptionRepository
	log           *zap.Logger
	fanoutWorkers int
}

func New(notifRepo repositories.NotificationRepository, subRepo repositories.SubscriptionRepository, log *zap.Logger) *Notifier {
	return &Notifier{
		notifications: notifRepo,
		subscriptions: subRepo,
		log:           log,
		fanoutWorkers: defaultFanoutWorkers,
	}
}

// PostPublished notifies every active subscriber of the post's author. The
// author is never a subscriber of themselves, so no self-check is needed.
// Deliveries run on a bounded worker pool so a creator with a large
// audience cannot flood the store; each delivery is independent and partial
// success is acceptable.
func (n *Notifier) PostPublished(ctx context.Context, author *models.User, post *models.Post) {
	ctx, cancel := context.WithTimeout(ctx, subscriberQueryTimeout)
	defer cancel()

	subs, err := n.subscriptions.ListActiveSubscribers(ctx, author.ID)
	if err != nil {
		n.log.Warn("notify(post:new): listing subscribers failed",
			zap.Uint("creator_id", author.ID), zap.Error(err))
		return
	}
	if len(subs) == 0 {
		return
	}

	postID := post.ID.Hex()
	actorID := author.ID
	message := author.Username + " posted a new update"

	wp := workerpool.New(n.fanoutWorkers)
	for _, sub := range subs {
		recipient := sub.SubscriberID
		wp.Submit(func() {
			n.deliver(&models.Notification{
				Type:        models.NotificationTypePostNew,
				ActorID:     &actorID,
				RecipientID: recipient,
				Message:     message,
				Metadata: datatypes.NewJSONType(models.NotificationMetadata{
					PostID:    postID,
					CreatorID: author.ID,
				}),
			})
		})
	}
	wp.StopWait()
}

// CommentCreated notifies exactly one recipient, or nobody:
//   - top-level comment: the post's author, unless they wrote it;
//   - reply: the parent comment's author, unless they wrote it. Ancestors
//     further up the chain and the post author get nothing from a reply.
//
// metadata.CommentID is always the new comment's id so the client can
// scroll to and highlight the exact new message.
func (n *Notifier) CommentCreated(actor *models.User, comment *models.Comment, post *models.Post, parent *models.Comment) {
	var recipient uint
	var typ, message string

	if comment.ParentID != nil {
		if parent == nil || parent.AuthorID == nil || *parent.AuthorID == actor.ID {
			return
		}
		recipient = *parent.AuthorID
		typ = models.NotificationTypeCommentReply
		message = actor.Username + " replied to your comment"
	} else {
		if post.AuthorID == actor.ID {
			return
		}
		recipient = post.AuthorID
		typ = models.NotificationTypeCommentNew
		message = actor.Username + " commented on your post"
	}

	actorID := actor.ID
	n.deliver(&models.Notification{
		Type:        typ,
		ActorID:     &actorID,
		RecipientID: recipient,
		Message:     message,
		Metadata: datatypes.NewJSONType(models.NotificationMetadata{
			PostID:    comment.PostID,
			CommentID: comment.ID,
		}),
	})
}

// Subscribed notifies the creator that someone subscribed to them.
func (n *Notifier) Subscribed(subscriber *models.User, creatorID uint) {
	actorID := subscriber.ID
	n.deliver(&models.Notification{
		Type:        models.NotificationTypeSubNew,
		ActorID:     &actorID,
		RecipientID: creatorID,
		Message:     subscriber.Username + " subscribed to you",
		Metadata: datatypes.NewJSONType(models.NotificationMetadata{
			CreatorID: creatorID,
		}),
	})
}

// deliver resolves the navigation link if the producer left it empty, then
// persists the record. Errors are logged, never returned.
func (n *Notifier) deliver(notification *models.Notification) {
	meta := notification.Metadata.Data()
	if meta.Link == "" {
		meta.Link = buildLink(notification.Type, meta)
		notification.Metadata = datatypes.NewJSONType(meta)
	}
	if err := n.notifications.CreateNotification(notification); err != nil {
		n.log.Warn("notification delivery failed",
			zap.String("type", notification.Type),
			zap.Uint("recipient_id", notification.RecipientID),
			zap.Error(err))
	}
}

// buildLink derives the jump target from the event type and ids. Comment
// events point at the post with the new comment highlighted.
func buildLink(typ string, meta models.NotificationMetadata) string {
	switch {
	case strings.HasPrefix(typ, "comment:") && meta.PostID != "" && meta.CommentID != 0:
		return fmt.Sprintf("/post/%s?highlight=%d", meta.PostID, meta.CommentID)
	case typ == models.NotificationTypePostNew && meta.PostID != "":
		return "/post/" + meta.PostID
	case strings.HasPrefix(typ, "sub:") && meta.CreatorID != 0:
		return fmt.Sprintf("/creator/%d", meta.CreatorID)
	}
	return ""
}
