package repositories

import (
	"errors"

	"github.com/fanloft-app/backend/internal/models"
	"gorm.io/gorm"
)

// CommentLikeRepository defines the interface for comment like operations.
// There is no per-user lookup here: liked-by-viewer state is annotated in
// bulk by the comment listing, and Toggle reports the post-toggle state.
type CommentLikeRepository interface {
	Toggle(commentID, userID uint) (liked bool, count int64, err error)
	GetLikesCount(commentID uint) (int64, error)
}

type postgresCommentLikeRepository struct {
	db *gorm.DB
}

func NewPostgresCommentLikeRepository(db *gorm.DB) CommentLikeRepository {
	return &postgresCommentLikeRepository{db: db}
}

// Toggle flips the like state for (userID, commentID): delete the row if it
// exists, insert it otherwise. A duplicate-key error on insert means a
// concurrent toggle-on already won; that is absorbed as "already liked"
// rather than surfaced. The returned count is always recounted from rows,
// never adjusted in memory, so it stays correct under concurrent toggles.
func (r *postgresCommentLikeRepository) Toggle(commentID, userID uint) (bool, int64, error) {
	var liked bool
	var existing models.CommentLike
	err := r.db.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error
	switch {
	case err == nil:
		if err := r.db.Delete(&existing).Error; err != nil {
			return false, 0, err
		}
		liked = false
	case errors.Is(err, gorm.ErrRecordNotFound):
		like := models.CommentLike{CommentID: commentID, UserID: userID}
		if err := r.db.Create(&like).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, 0, err
		}
		liked = true
	default:
		return false, 0, err
	}

	count, err := r.GetLikesCount(commentID)
	if err != nil {
		return liked, 0, err
	}
	return liked, count, nil
}

func (r *postgresCommentLikeRepository) GetLikesCount(commentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&count).Error
	return count, err
}
