package handler

import (
	"mime/multipart"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/videotube/api/internal/core/ports"
)

// apiEnvelope is the uniform response shape: {status, message, data}.
// Errors use the same envelope (rendered by the central error handler) with
// the data field absent.
type apiEnvelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, apiEnvelope{Status: status, Message: message, Data: data})
}

// --- Request types ---

// loginRequest accepts the identifier in either field; handle-or-email is a
// single logical input.
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

func (r loginRequest) identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type updateAccountRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email"     validate:"required,email"`
}

// --- Response types ---

type loginResponse struct {
	User         any    `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type subscriptionResponse struct {
	Subscribed bool `json:"subscribed"`
}

// --- Cookie transport ---

const (
	cookieAccessToken  = "accessToken"
	cookieRefreshToken = "refreshToken"
)

func setAuthCookies(c echo.Context, pair ports.TokenPair, accessTTL, refreshTTL time.Duration) {
	c.SetCookie(authCookie(cookieAccessToken, pair.AccessToken, accessTTL))
	c.SetCookie(authCookie(cookieRefreshToken, pair.RefreshToken, refreshTTL))
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(expiredCookie(cookieAccessToken))
	c.SetCookie(expiredCookie(cookieRefreshToken))
}

func authCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

func expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

// --- Multipart helpers ---

// formUpload opens the named multipart file. Returns (nil, noop, nil) when
// the field is absent so optional files fall through cleanly.
func formUpload(c echo.Context, field string) (*ports.FileUpload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}, nil
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*ports.FileUpload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	upload := &ports.FileUpload{
		Reader:      f,
		Size:        fh.Size,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	}
	return upload, func() { _ = f.Close() }, nil
}
