package repositories

import (
	"github.com/fanloft-app/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(comment *models.Comment) error
	GetCommentByID(id uint) (*models.Comment, error)
	UpdateComment(comment *models.Comment) error
	SoftDeleteComment(id uint) error
	ListForPost(postID string, viewerID uint) ([]models.CommentView, error)
	CountByPostID(postID string) (int64, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

func (r *PostgresCommentRepository) GetCommentByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *PostgresCommentRepository) UpdateComment(comment *models.Comment) error {
	return r.db.Save(comment).Error
}

// SoftDeleteComment clears the message and marks the comment deleted while
// keeping the row, so replies referencing it stay attached to the tree.
// Likes on the deleted comment are purged in the same transaction.
func (r *PostgresCommentRepository) SoftDeleteComment(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Comment{}).Where("id = ?", id).
			Updates(map[string]interface{}{"message": nil, "deleted": true})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("comment_id = ?", id).Delete(&models.CommentLike{}).Error
	})
}

// ListForPost returns every comment of a post (soft-deleted included) in
// creation order, each annotated with its recounted like count and whether
// the viewer has liked it.
func (r *PostgresCommentRepository) ListForPost(postID string, viewerID uint) ([]models.CommentView, error) {
	var comments []models.Comment
	if err := r.db.Where("post_id = ?", postID).Order("id ASC").Find(&comments).Error; err != nil {
		return nil, err
	}

	views := make([]models.CommentView, len(comments))
	if len(comments) == 0 {
		return views, nil
	}

	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
		views[i] = models.CommentView{Comment: c}
	}

	var counts []struct {
		CommentID uint
		N         int64
	}
	err := r.db.Model(&models.CommentLike{}).
		Select("comment_id, COUNT(*) AS n").
		Where("comment_id IN ?", ids).
		Group("comment_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	countByID := make(map[uint]int64, len(counts))
	for _, c := range counts {
		countByID[c.CommentID] = c.N
	}

	var likedIDs []uint
	err = r.db.Model(&models.CommentLike{}).
		Where("comment_id IN ? AND user_id = ?", ids, viewerID).
		Pluck("comment_id", &likedIDs).Error
	if err != nil {
		return nil, err
	}
	likedSet := make(map[uint]struct{}, len(likedIDs))
	for _, id := range likedIDs {
		likedSet[id] = struct{}{}
	}

	for i := range views {
		views[i].LikeCount = countByID[views[i].ID]
		_, views[i].LikedByMe = likedSet[views[i].ID]
	}
	return views, nil
}

func (r *PostgresCommentRepository) CountByPostID(postID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
