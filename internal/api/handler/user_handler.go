package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/videotube/api/internal/api/metrics"
	"github.com/videotube/api/internal/core/domain"
	"github.com/videotube/api/internal/core/ports"
)

// UserHandler handles the account and session endpoints.
type UserHandler struct {
	service    ports.UserService
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewUserHandler(service ports.UserService, accessTTL, refreshTTL time.Duration) *UserHandler {
	return &UserHandler{service: service, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Register creates a new account from a multipart form.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        username   formData  string  true   "Unique handle"
// @Param        email      formData  string  true   "Email address"
// @Param        full_name  formData  string  true   "Display name"
// @Param        password   formData  string  true   "Password"
// @Param        avatar     formData  file    true   "Avatar image"
// @Param        cover_image formData file    false  "Cover image"
// @Success      201  {object}  apiEnvelope
// @Failure      400  {object}  apiEnvelope
// @Failure      409  {object}  apiEnvelope
// @Failure      500  {object}  apiEnvelope
// @Router       /users/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	avatar, closeAvatar, err := formUpload(c, "avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid avatar file")
	}
	defer closeAvatar()

	cover, closeCover, err := formUpload(c, "cover_image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cover image file")
	}
	defer closeCover()

	user, err := h.service.Register(c.Request().Context(), ports.RegisterInput{
		Username:   c.FormValue("username"),
		Email:      c.FormValue("email"),
		FullName:   c.FormValue("full_name"),
		Password:   c.FormValue("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		case errors.Is(err, domain.ErrFieldsRequired):
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		default:
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	metrics.MediaUploadsTotal.WithLabelValues("avatar").Inc()
	if cover != nil {
		metrics.MediaUploadsTotal.WithLabelValues("cover").Inc()
	}

	return respond(c, http.StatusCreated, "user registered successfully", user)
}

// Login authenticates by handle or email and issues a token pair.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  apiEnvelope
// @Failure      400   {object}  apiEnvelope
// @Failure      401   {object}  apiEnvelope
// @Failure      404   {object}  apiEnvelope
// @Router       /users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Login(c.Request().Context(), req.identifier(), req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	setAuthCookies(c, result.Tokens, h.accessTTL, h.refreshTTL)

	return respond(c, http.StatusOK, "login successful", loginResponse{
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	})
}

// Logout clears the stored refresh token and expires the auth cookies.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  apiEnvelope
// @Failure      401  {object}  apiEnvelope
// @Router       /users/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.service.Logout(c.Request().Context(), userID); err != nil {
		return err
	}

	clearAuthCookies(c)
	return respond(c, http.StatusOK, "logged out successfully", nil)
}

// RefreshToken exchanges the presented refresh token (cookie or body) for a
// rotated pair.
//
// @Summary      Refresh the access token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token when not sent as a cookie"
// @Success      200   {object}  apiEnvelope
// @Failure      401   {object}  apiEnvelope
// @Router       /users/refresh-token [post]
func (h *UserHandler) RefreshToken(c echo.Context) error {
	presented := ""
	if cookie, err := c.Cookie(cookieRefreshToken); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	pair, err := h.service.RefreshAccessToken(c.Request().Context(), presented)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrStaleRefreshToken):
			metrics.TokenRefreshesTotal.WithLabelValues("stale").Inc()
		default:
			metrics.TokenRefreshesTotal.WithLabelValues("invalid").Inc()
		}
		return err
	}

	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
	setAuthCookies(c, *pair, h.accessTTL, h.refreshTTL)

	return respond(c, http.StatusOK, "access token refreshed", pair)
}

// ChangePassword replaces the password after verifying the old one. Existing
// sessions are not revoked.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Old and new passwords"
// @Success      200   {object}  apiEnvelope
// @Failure      400   {object}  apiEnvelope
// @Failure      401   {object}  apiEnvelope
// @Router       /users/change-password [post]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.ChangePassword(c.Request().Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	return respond(c, http.StatusOK, "password changed successfully", nil)
}

// CurrentUser returns the authenticated user's public view.
//
// @Summary      Get the current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  apiEnvelope
// @Failure      401  {object}  apiEnvelope
// @Router       /users/current-user [get]
func (h *UserHandler) CurrentUser(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.service.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "current user fetched", user)
}

// UpdateAccount changes full name and email.
//
// @Summary      Update account details
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateAccountRequest  true  "New account details"
// @Success      200   {object}  apiEnvelope
// @Failure      400   {object}  apiEnvelope
// @Failure      409   {object}  apiEnvelope
// @Router       /users/update-account [patch]
func (h *UserHandler) UpdateAccount(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.UpdateAccount(c.Request().Context(), userID, req.FullName, req.Email)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "account updated successfully", user)
}

// UpdateAvatar replaces the avatar image.
//
// @Summary      Update avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "New avatar image"
// @Success      200     {object}  apiEnvelope
// @Failure      400     {object}  apiEnvelope
// @Router       /users/avatar [patch]
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	avatar, closeAvatar, err := formUpload(c, "avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid avatar file")
	}
	defer closeAvatar()

	user, err := h.service.UpdateAvatar(c.Request().Context(), userID, avatar)
	if err != nil {
		return err
	}

	metrics.MediaUploadsTotal.WithLabelValues("avatar").Inc()
	return respond(c, http.StatusOK, "avatar updated successfully", user)
}

// UpdateCoverImage replaces the cover image.
//
// @Summary      Update cover image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        cover_image  formData  file  true  "New cover image"
// @Success      200          {object}  apiEnvelope
// @Failure      400          {object}  apiEnvelope
// @Router       /users/cover-image [patch]
func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	cover, closeCover, err := formUpload(c, "cover_image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cover image file")
	}
	defer closeCover()

	user, err := h.service.UpdateCoverImage(c.Request().Context(), userID, cover)
	if err != nil {
		return err
	}

	metrics.MediaUploadsTotal.WithLabelValues("cover").Inc()
	return respond(c, http.StatusOK, "cover image updated successfully", user)
}
