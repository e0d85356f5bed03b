package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxUserID extracts the user id injected by the Auth middleware. Presence
// proves the middleware ran; a protected handler reached without it is a
// wiring bug surfaced as 401 rather than a panic.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}

// ctxViewerID is the optional variant for routes that also serve anonymous
// viewers: no claims means an empty viewer, not an error.
func ctxViewerID(c echo.Context) string {
	viewerID, _ := c.Get("user_id").(string)
	return viewerID
}
