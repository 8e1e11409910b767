package repositories

import (
	"errors"
	"testing"

	"github.com/fanloft-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPostID = "64f000000000000000000001"

func seedComment(t *testing.T, db *gorm.DB, postID string, authorID uint, parentID *uint, msg string) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: postID, AuthorID: uintPtr(authorID), ParentID: parentID, Message: strPtr(msg)}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestSoftDeleteClearsMessageAndKeepsReplies(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresCommentRepository(db)

	parent := seedComment(t, db, testPostID, 1, nil, "parent")
	reply := seedComment(t, db, testPostID, 2, &parent.ID, "reply")

	require.NoError(t, db.Create(&models.CommentLike{CommentID: parent.ID, UserID: 2}).Error)
	require.NoError(t, db.Create(&models.CommentLike{CommentID: reply.ID, UserID: 1}).Error)

	require.NoError(t, repo.SoftDeleteComment(parent.ID))

	got, err := repo.GetCommentByID(parent.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Nil(t, got.Message)
	assert.Equal(t, testPostID, got.PostID)

	// The reply is untouched and still points at its parent.
	gotReply, err := repo.GetCommentByID(reply.ID)
	require.NoError(t, err)
	assert.False(t, gotReply.Deleted)
	require.NotNil(t, gotReply.ParentID)
	assert.Equal(t, parent.ID, *gotReply.ParentID)

	// Likes on the deleted comment are purged, the reply's survive.
	var likes int64
	require.NoError(t, db.Model(&models.CommentLike{}).Where("comment_id = ?", parent.ID).Count(&likes).Error)
	assert.Zero(t, likes)
	require.NoError(t, db.Model(&models.CommentLike{}).Where("comment_id = ?", reply.ID).Count(&likes).Error)
	assert.EqualValues(t, 1, likes)
}

func TestSoftDeleteUnknownComment(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresCommentRepository(db)

	err := repo.SoftDeleteComment(12345)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestSoftDeleteIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresCommentRepository(db)

	c := seedComment(t, db, testPostID, 1, nil, "bye")
	require.NoError(t, repo.SoftDeleteComment(c.ID))
	require.NoError(t, repo.SoftDeleteComment(c.ID))

	got, err := repo.GetCommentByID(c.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Nil(t, got.Message)
}

func TestListForPostAnnotations(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresCommentRepository(db)

	first := seedComment(t, db, testPostID, 1, nil, "first")
	second := seedComment(t, db, testPostID, 2, nil, "second")
	reply := seedComment(t, db, testPostID, 3, &first.ID, "a reply")
	seedComment(t, db, "64f000000000000000000099", 1, nil, "other post")

	// first: liked by viewer (user 3) and user 2; second: liked by user 1 only.
	require.NoError(t, db.Create(&models.CommentLike{CommentID: first.ID, UserID: 3}).Error)
	require.NoError(t, db.Create(&models.CommentLike{CommentID: first.ID, UserID: 2}).Error)
	require.NoError(t, db.Create(&models.CommentLike{CommentID: second.ID, UserID: 1}).Error)

	views, err := repo.ListForPost(testPostID, 3)
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, first.ID, views[0].ID)
	assert.Equal(t, second.ID, views[1].ID)
	assert.Equal(t, reply.ID, views[2].ID)

	assert.EqualValues(t, 2, views[0].LikeCount)
	assert.True(t, views[0].LikedByMe)
	assert.EqualValues(t, 1, views[1].LikeCount)
	assert.False(t, views[1].LikedByMe)
	assert.Zero(t, views[2].LikeCount)
	assert.False(t, views[2].LikedByMe)
}

func TestListForPostIncludesSoftDeleted(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresCommentRepository(db)

	parent := seedComment(t, db, testPostID, 1, nil, "gone soon")
	seedComment(t, db, testPostID, 2, &parent.ID, "still here")
	require.NoError(t, repo.SoftDeleteComment(parent.ID))

	views, err := repo.ListForPost(testPostID, 2)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].Deleted)
	assert.Nil(t, views[0].Message)
	assert.False(t, views[1].Deleted)
}

func TestListForPostEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresCommentRepository(db)

	views, err := repo.ListForPost(testPostID, 1)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestCountByPostID(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresCommentRepository(db)

	c := seedComment(t, db, testPostID, 1, nil, "one")
	seedComment(t, db, testPostID, 2, &c.ID, "two")
	seedComment(t, db, "64f000000000000000000099", 1, nil, "elsewhere")

	count, err := repo.CountByPostID(testPostID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
