package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fanloft-app/backend/internal/commenttree"
	"github.com/fanloft-app/backend/internal/models"
	"github.com/fanloft-app/backend/internal/notifications"
	"github.com/fanloft-app/backend/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	notifier          *notifications.Notifier
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifier *notifications.Notifier,
) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		userRepository:    userRepo,
		notifier:          notifier,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetCommentsByPostID)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment creates a top-level comment or a reply on a post. The
// notification for the post author (or the parent comment's author) is
// fired after the comment is stored and can never fail the request.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	postID := c.Param("post_id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}

	// A reply must point at an existing comment on the same post. There is
	// no foreign key across the stores, so this is checked here.
	var parent *models.Comment
	if req.ParentID != nil {
		parent, err = h.commentRepository.GetCommentByID(*req.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Parent comment not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if parent.PostID != postID {
			return echo.NewHTTPError(http.StatusBadRequest, "Parent comment belongs to a different post")
		}
	}

	authorID := user.ID
	message := req.Message
	comment := &models.Comment{
		PostID:   postID,
		AuthorID: &authorID,
		ParentID: req.ParentID,
		Message:  &message,
	}

	if err := h.commentRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.notifier.CommentCreated(user, comment, post, parent)

	author := user.ToCompact()
	return c.JSON(http.StatusCreated, models.CommentView{
		Comment: *comment,
		Author:  &author,
	})
}

// GetCommentsByPostID retrieves all comments for a post, annotated with
// like counts and the requester's like state. The default response is the
// flat parent-referencing list; ?view=tree returns the nested form.
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	postID := c.Param("post_id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	viewerID := getUserIDFromContext(c)
	comments, err := h.commentRepository.ListForPost(postID, viewerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.attachAuthors(comments)

	if c.QueryParam("view") == "tree" {
		return c.JSON(http.StatusOK, commenttree.Build(comments).Nodes())
	}
	return c.JSON(http.StatusOK, comments)
}

// attachAuthors resolves author summaries with a per-request cache, the
// same way notification actors are enriched.
func (h *CommentHandler) attachAuthors(comments []models.CommentView) {
	userCache := make(map[uint]models.UserCompact)
	for i := range comments {
		if comments[i].AuthorID == nil {
			continue
		}
		id := *comments[i].AuthorID
		if cached, ok := userCache[id]; ok {
			comments[i].Author = &cached
			continue
		}
		user, err := h.userRepository.GetUserByID(id)
		if err != nil {
			continue
		}
		compact := user.ToCompact()
		userCache[id] = compact
		comments[i].Author = &compact
	}
}

// UpdateComment edits a comment's message; only the author may edit.
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	var req models.UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}

	comment, err := h.commentRepository.GetCommentByID(uint(commentID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if comment.AuthorID == nil || *comment.AuthorID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only edit your own comments")
	}

	message := req.Message
	comment.Message = &message

	if err := h.commentRepository.UpdateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, comment)
}

// DeleteComment soft-deletes a comment: the message is cleared and the
// deleted flag set, but the row survives so replies stay attached. Likes
// on the comment are removed with it.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}

	comment, err := h.commentRepository.GetCommentByID(uint(commentID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if comment.AuthorID == nil || *comment.AuthorID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own comments")
	}

	if err := h.commentRepository.SoftDeleteComment(comment.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	comment.Message = nil
	comment.Deleted = true
	return c.JSON(http.StatusOK, comment)
}
