package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fanloft-app/backend/internal/models"
	"github.com/fanloft-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// viewGateTimeout bounds the subscription check backing a like toggle. A
// check that does not answer in time denies, it never silently passes.
const viewGateTimeout = 2 * time.Second

// LikeHandler handles like toggles for posts and comments
type LikeHandler struct {
	commentLikeRepository  repositories.CommentLikeRepository
	postLikeRepository     repositories.PostLikeRepository
	commentRepository      repositories.CommentRepository
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	subscriptionRepository repositories.SubscriptionRepository
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(
	commentLikeRepo repositories.CommentLikeRepository,
	postLikeRepo repositories.PostLikeRepository,
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	subRepo repositories.SubscriptionRepository,
) *LikeHandler {
	return &LikeHandler{
		commentLikeRepository:  commentLikeRepo,
		postLikeRepository:     postLikeRepo,
		commentRepository:      commentRepo,
		postRepository:         postRepo,
		userRepository:         userRepo,
		subscriptionRepository: subRepo,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/like/toggle", h.TogglePostLike)
	g.POST("/comments/:id/like/toggle", h.ToggleCommentLike)
}

// TogglePostLike flips the caller's like on a post and returns the
// resulting state with the recounted total.
func (h *LikeHandler) TogglePostLike(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	if !h.canViewPost(c.Request().Context(), userID, post) {
		return echo.NewHTTPError(http.StatusForbidden, "You must be subscribed to this creator")
	}

	liked, count, err := h.postLikeRepository.Toggle(postID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"liked": liked, "like_count": count})
}

// ToggleCommentLike flips the caller's like on a comment. The gate is the
// owning post's: the caller must be its author or an active subscriber.
func (h *LikeHandler) ToggleCommentLike(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	comment, err := h.commentRepository.GetCommentByID(uint(commentID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), comment.PostID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	if !h.canViewPost(c.Request().Context(), userID, post) {
		return echo.NewHTTPError(http.StatusForbidden, "You must be subscribed to this creator")
	}

	liked, count, err := h.commentLikeRepository.Toggle(comment.ID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"liked": liked, "like_count": count})
}

// canViewPost reports whether the actor owns the post or actively
// subscribes to its author. Any error from the subscription store,
// including a deadline, counts as a deny.
func (h *LikeHandler) canViewPost(ctx context.Context, actorID uint, post *models.Post) bool {
	if post.AuthorID == actorID {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, viewGateTimeout)
	defer cancel()
	ok, err := h.subscriptionRepository.IsActiveSubscriber(ctx, post.AuthorID, actorID)
	if err != nil {
		return false
	}
	return ok
}
