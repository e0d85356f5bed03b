package ports

import (
	"context"
	"io"

	"github.com/videotube/api/internal/core/domain"
)

// FileUpload carries an incoming multipart file to the media store.
type FileUpload struct {
	Reader      io.Reader
	Size        int64
	Filename    string
	ContentType string
}

// RegisterInput carries all data needed to create a new account.
// Avatar is mandatory; CoverImage may be nil.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     *FileUpload
	CoverImage *FileUpload
}

// TokenPair is an access/refresh credential pair issued on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResult bundles the authenticated user's public view with a fresh pair.
type LoginResult struct {
	User   domain.PublicUser
	Tokens TokenPair
}

// UserService defines the credential and session use cases.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.PublicUser, error)
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	Logout(ctx context.Context, userID string) error
	// RefreshAccessToken rotates the pair. A signature-valid token that no
	// longer matches the stored slot is rejected with ErrStaleRefreshToken.
	RefreshAccessToken(ctx context.Context, presented string) (*TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (*domain.PublicUser, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (*domain.PublicUser, error)
	UpdateAvatar(ctx context.Context, userID string, avatar *FileUpload) (*domain.PublicUser, error)
	UpdateCoverImage(ctx context.Context, userID string, cover *FileUpload) (*domain.PublicUser, error)
}
