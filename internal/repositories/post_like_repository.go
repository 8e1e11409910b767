package repositories

import (
	"errors"

	"github.com/fanloft-app/backend/internal/models"
	"gorm.io/gorm"
)

// PostLikeRepository defines the interface for post like operations
type PostLikeRepository interface {
	Toggle(postID string, userID uint) (liked bool, count int64, err error)
	HasUserLikedPost(postID string, userID uint) (bool, error)
	GetLikesCount(postID string) (int64, error)
}

type postgresPostLikeRepository struct {
	db *gorm.DB
}

func NewPostgresPostLikeRepository(db *gorm.DB) PostLikeRepository {
	return &postgresPostLikeRepository{db: db}
}

// Toggle has the same semantics as the comment like toggle: row existence is
// the state, the unique index arbitrates races, and the count is recounted.
func (r *postgresPostLikeRepository) Toggle(postID string, userID uint) (bool, int64, error) {
	var liked bool
	var existing models.PostLike
	err := r.db.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
	switch {
	case err == nil:
		if err := r.db.Delete(&existing).Error; err != nil {
			return false, 0, err
		}
		liked = false
	case errors.Is(err, gorm.ErrRecordNotFound):
		like := models.PostLike{PostID: postID, UserID: userID}
		if err := r.db.Create(&like).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, 0, err
		}
		liked = true
	default:
		return false, 0, err
	}

	count, err := r.GetLikesCount(postID)
	if err != nil {
		return liked, 0, err
	}
	return liked, count, nil
}

func (r *postgresPostLikeRepository) HasUserLikedPost(postID string, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.PostLike{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error
	return count > 0, err
}

func (r *postgresPostLikeRepository) GetLikesCount(postID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
