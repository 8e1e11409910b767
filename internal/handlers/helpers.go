package handlers

import (
	"net/http"

	"github.com/fanloft-app/backend/internal/models"
	"github.com/fanloft-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext extracts the authenticated user id set by the JWT
// middleware. Returns 0 when the request carries no valid claims.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return 0
	}
	return claims.UserID
}

// currentUser loads the authenticated user's row, or fails the request.
func currentUser(c echo.Context, users repositories.UserRepository) (*models.User, error) {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	user, err := users.GetUserByID(userID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Authenticated user not found in database")
	}
	return user, nil
}
