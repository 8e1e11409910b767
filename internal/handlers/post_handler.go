package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fanloft-app/backend/internal/models"
	"github.com/fanloft-app/backend/internal/notifications"
	"github.com/fanloft-app/backend/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	postLikeRepo      repositories.PostLikeRepository
	commentRepository repositories.CommentRepository
	notifier          *notifications.Notifier
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	postLikeRepo repositories.PostLikeRepository,
	commentRepo repositories.CommentRepository,
	notifier *notifications.Notifier,
) *PostHandler {
	return &PostHandler{
		postRepository:    postRepo,
		userRepository:    userRepo,
		postLikeRepo:      postLikeRepo,
		commentRepository: commentRepo,
		notifier:          notifier,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.GET("/creators/:id/posts", h.GetCreatorPosts)
}

// CreatePost publishes a new post. Creator accounts only. Subscriber
// fan-out runs detached after the post is stored; its failure never
// affects this request's outcome.
func (h *PostHandler) CreatePost(c echo.Context) error {
	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}
	if user.Role != models.RoleCreator {
		return echo.NewHTTPError(http.StatusForbidden, "Only creators can publish posts")
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post := &models.Post{
		AuthorID:    user.ID,
		Title:       req.Title,
		Body:        req.Body,
		Attachments: req.Attachments,
	}

	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.notifier.PostPublished(context.Background(), user, post)

	return c.JSON(http.StatusCreated, post)
}

// GetPost returns a post enriched with recounted like/comment totals and
// the requester's like state.
func (h *PostHandler) GetPost(c echo.Context) error {
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	view, err := h.enrich(c, *post)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, view)
}

// GetCreatorPosts lists a creator's posts, newest first.
func (h *PostHandler) GetCreatorPosts(c echo.Context) error {
	creatorID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	skip := int64((page - 1) * limit)

	posts, err := h.postRepository.GetPostsByAuthorID(c.Request().Context(), uint(creatorID), skip, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		view, err := h.enrich(c, p)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		views = append(views, view)
	}
	return c.JSON(http.StatusOK, views)
}

// UpdatePost edits a post; only the author may edit.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	postID := c.Param("id")

	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if post.AuthorID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this post")
	}

	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Body != "" {
		post.Body = req.Body
	}
	if req.Attachments != nil {
		post.Attachments = req.Attachments
	}

	if err := h.postRepository.UpdatePost(c.Request().Context(), postID, post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, post)
}

// DeletePost removes a post; only the author may delete.
func (h *PostHandler) DeletePost(c echo.Context) error {
	postID := c.Param("id")

	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if post.AuthorID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	if err := h.postRepository.DeletePost(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *PostHandler) enrich(c echo.Context, post models.Post) (models.PostView, error) {
	view := models.PostView{Post: post}
	postID := post.ID.Hex()

	likeCount, err := h.postLikeRepo.GetLikesCount(postID)
	if err != nil {
		return view, err
	}
	view.LikeCount = likeCount

	commentCount, err := h.commentRepository.CountByPostID(postID)
	if err != nil {
		return view, err
	}
	view.CommentCount = commentCount

	if viewerID := getUserIDFromContext(c); viewerID != 0 {
		liked, err := h.postLikeRepo.HasUserLikedPost(postID, viewerID)
		if err != nil {
			return view, err
		}
		view.LikedByMe = liked
	}

	if author, err := h.userRepository.GetUserByID(post.AuthorID); err == nil {
		compact := author.ToCompact()
		view.Author = &compact
	}
	return view, nil
}
