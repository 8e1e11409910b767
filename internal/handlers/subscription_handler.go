package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fanloft-app/backend/internal/models"
	"github.com/fanloft-app/backend/internal/notifications"
	"github.com/fanloft-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SubscriptionHandler handles subscribe/unsubscribe HTTP requests
type SubscriptionHandler struct {
	subscriptionRepository repositories.SubscriptionRepository
	userRepository         repositories.UserRepository
	notifier               *notifications.Notifier
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(
	subRepo repositories.SubscriptionRepository,
	userRepo repositories.UserRepository,
	notifier *notifications.Notifier,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionRepository: subRepo,
		userRepository:         userRepo,
		notifier:               notifier,
	}
}

// RegisterSubscriptionRoutes registers subscription-related routes
func (h *SubscriptionHandler) RegisterSubscriptionRoutes(g *echo.Group) {
	g.POST("/creators/:id/subscribe", h.Subscribe)
	g.DELETE("/creators/:id/subscribe", h.Unsubscribe)
	g.GET("/subscriptions", h.GetMyCreators)
	g.GET("/subscribers", h.GetMySubscribers)
}

// Subscribe subscribes the caller to a creator. A cancelled subscription is
// reactivated. The creator is notified best-effort.
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}

	creatorID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	if user.ID == uint(creatorID) {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot subscribe to yourself")
	}

	creator, err := h.userRepository.GetUserByID(uint(creatorID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Creator not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if creator.Role != models.RoleCreator {
		return echo.NewHTTPError(http.StatusBadRequest, "User is not a creator")
	}

	sub, err := h.subscriptionRepository.Subscribe(creator.ID, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrAlreadySubscribed) {
			return echo.NewHTTPError(http.StatusConflict, "Already subscribed to this creator")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.notifier.Subscribed(user, creator.ID)

	return c.JSON(http.StatusCreated, sub)
}

// Unsubscribe cancels the caller's subscription to a creator
func (h *SubscriptionHandler) Unsubscribe(c echo.Context) error {
	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}

	creatorID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.subscriptionRepository.Cancel(uint(creatorID), user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Subscription not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"subscribed": false})
}

// GetMyCreators lists the creators the caller actively subscribes to
func (h *SubscriptionHandler) GetMyCreators(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	creatorIDs, err := h.subscriptionRepository.ListActiveCreatorIDs(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	creators, err := h.userRepository.GetUsersByIDs(creatorIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	results := make([]models.UserCompact, len(creators))
	for i, u := range creators {
		results[i] = u.ToCompact()
	}
	return c.JSON(http.StatusOK, results)
}

// GetMySubscribers lists the caller's active subscribers (creators only)
func (h *SubscriptionHandler) GetMySubscribers(c echo.Context) error {
	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}
	if user.Role != models.RoleCreator {
		return echo.NewHTTPError(http.StatusForbidden, "Only creators have subscribers")
	}

	subs, err := h.subscriptionRepository.ListActiveSubscribers(c.Request().Context(), user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ids := make([]uint, len(subs))
	for i, s := range subs {
		ids[i] = s.SubscriberID
	}

	subscribers, err := h.userRepository.GetUsersByIDs(ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	results := make([]models.UserCompact, len(subscribers))
	for i, u := range subscribers {
		results[i] = u.ToCompact()
	}
	return c.JSON(http.StatusOK, results)
}
