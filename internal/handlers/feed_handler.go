package handlers

import (
	"net/http"
	"strconv"

	"github.com/fanloft-app/backend/internal/models"
	"github.com/fanloft-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the subscriber feed: the newest posts of the creators
// the caller actively subscribes to.
type FeedHandler struct {
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	subscriptionRepository repositories.SubscriptionRepository
	postLikeRepository     repositories.PostLikeRepository
	commentRepository      repositories.CommentRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	subRepo repositories.SubscriptionRepository,
	postLikeRepo repositories.PostLikeRepository,
	commentRepo repositories.CommentRepository,
) *FeedHandler {
	return &FeedHandler{
		postRepository:         postRepo,
		userRepository:         userRepo,
		subscriptionRepository: subRepo,
		postLikeRepository:     postLikeRepo,
		commentRepository:      commentRepo,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns enriched posts from the caller's subscribed creators
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
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

	creatorIDs, err := h.subscriptionRepository.ListActiveCreatorIDs(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	posts, err := h.postRepository.GetPostsByAuthorIDs(c.Request().Context(), creatorIDs, skip, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	authorCache := make(map[uint]models.UserCompact)
	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		view := models.PostView{Post: p}
		postID := p.ID.Hex()

		if view.LikeCount, err = h.postLikeRepository.GetLikesCount(postID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if view.CommentCount, err = h.commentRepository.CountByPostID(postID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if view.LikedByMe, err = h.postLikeRepository.HasUserLikedPost(postID, currentUserID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		if author, ok := authorCache[p.AuthorID]; ok {
			view.Author = &author
		} else if user, err := h.userRepository.GetUserByID(p.AuthorID); err == nil {
			compact := user.ToCompact()
			authorCache[p.AuthorID] = compact
			view.Author = &compact
		}

		views = append(views, view)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"posts": views,
		"meta": echo.Map{
			"currentPage":  page,
			"itemsPerPage": limit,
		},
	})
}
