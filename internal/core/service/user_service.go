package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/videotube/api/internal/core/domain"
	"github.com/videotube/api/internal/core/ports"
)

// UserService implements registration and the session-token lifecycle.
//
// The refresh token is a single slot on the user record: every login and
// refresh overwrites it, so concurrent sessions for the same user race
// last-writer-wins and only the most recently issued refresh token stays
// valid. That is the intended single-active-session design, not a bug.
type UserService struct {
	repo   ports.UserRepository
	media  ports.MediaStore
	tokens TokenConfig
	log    zerolog.Logger
}

func NewUserService(repo ports.UserRepository, media ports.MediaStore, tokens TokenConfig, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, media: media, tokens: tokens, log: log}
}

const (
	avatarFolder = "avatars"
	coverFolder  = "covers"
)

// Register validates input, checks uniqueness, uploads the avatar (and cover
// when given), and only then creates the record. A failed upload aborts
// before any write so no partial record can exist.
func (s *UserService) Register(ctx context.Context, input ports.RegisterInput) (*domain.PublicUser, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)

	if username == "" || email == "" || fullName == "" || strings.TrimSpace(input.Password) == "" {
		return nil, domain.ErrFieldsRequired
	}
	if input.Avatar == nil {
		return nil, domain.ErrFieldsRequired
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, domain.ErrUserExists
	}
	if _, err := s.repo.FindByIdentifier(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	}

	avatarURL, err := s.media.Upload(ctx, avatarFolder, input.Avatar)
	if err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("avatar upload failed")
		return nil, domain.ErrUploadFailed
	}

	var coverURL string
	if input.CoverImage != nil {
		coverURL, err = s.media.Upload(ctx, coverFolder, input.CoverImage)
		if err != nil {
			s.log.Error().Err(err).Str("username", username).Msg("cover image upload failed")
			return nil, domain.ErrUploadFailed
		}
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", username).Msg("user registered")
	view := created.Public()
	return &view, nil
}

// Login verifies credentials against the record matched by username or email,
// then issues a fresh access/refresh pair and persists the refresh token.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return nil, domain.ErrFieldsRequired
	}

	user, err := s.repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", user.Username).Msg("user logged in")
	return &ports.LoginResult{User: user.Public(), Tokens: *pair}, nil
}

// Logout unsets the refresh-token slot so no previously issued refresh token
// can succeed again. Identity is established by the caller via a valid access
// token.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.repo.ClearRefreshToken(ctx, userID); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Msg("user logged out")
	return nil
}

// RefreshAccessToken exchanges a valid, current refresh token for a new pair.
// The presented token must exactly equal the stored slot value; a
// signature-valid but superseded token is rejected distinctly so rotation
// replay shows up in logs.
func (s *UserService) RefreshAccessToken(ctx context.Context, presented string) (*ports.TokenPair, error) {
	if presented == "" {
		return nil, domain.ErrInvalidToken
	}

	userID, err := VerifyRefreshToken(s.tokens, presented)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		s.log.Warn().Str("user_id", userID).Msg("superseded refresh token presented")
		return nil, domain.ErrStaleRefreshToken
	}

	return s.issuePair(ctx, user)
}

// ChangePassword re-hashes and stores the new password after verifying the
// old one. The stored refresh token is left untouched: existing sessions stay
// valid after a password change, matching the original system's behavior.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(oldPassword) == "" || strings.TrimSpace(newPassword) == "" {
		return domain.ErrFieldsRequired
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := VerifyPassword(user.PasswordHash, oldPassword); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.log.Info().Str("user_id", userID).Msg("password changed")
	return nil
}

func (s *UserService) CurrentUser(ctx context.Context, userID string) (*domain.PublicUser, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := user.Public()
	return &view, nil
}

// UpdateAccount changes the mutable identity fields. Both are required.
func (s *UserService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*domain.PublicUser, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return nil, domain.ErrFieldsRequired
	}

	updated, err := s.repo.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		return nil, err
	}
	view := updated.Public()
	return &view, nil
}

// UpdateAvatar uploads the new image first and only then swaps the reference.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, avatar *ports.FileUpload) (*domain.PublicUser, error) {
	if avatar == nil {
		return nil, domain.ErrFieldsRequired
	}

	url, err := s.media.Upload(ctx, avatarFolder, avatar)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("avatar upload failed")
		return nil, domain.ErrUploadFailed
	}

	updated, err := s.repo.UpdateAvatar(ctx, userID, url)
	if err != nil {
		return nil, err
	}
	view := updated.Public()
	return &view, nil
}

// UpdateCoverImage uploads the new image first and only then swaps the reference.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, cover *ports.FileUpload) (*domain.PublicUser, error) {
	if cover == nil {
		return nil, domain.ErrFieldsRequired
	}

	url, err := s.media.Upload(ctx, coverFolder, cover)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("cover image upload failed")
		return nil, domain.ErrUploadFailed
	}

	updated, err := s.repo.UpdateCoverImage(ctx, userID, url)
	if err != nil {
		return nil, err
	}
	view := updated.Public()
	return &view, nil
}

// issuePair mints a new access/refresh pair and persists the refresh token
// onto the record, invalidating whatever was in the slot before.
func (s *UserService) issuePair(ctx context.Context, user *domain.User) (*ports.TokenPair, error) {
	access, err := IssueAccessToken(s.tokens, user)
	if err != nil {
		return nil, err
	}
	refresh, err := IssueRefreshToken(s.tokens, user)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, err
	}
	return &ports.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
