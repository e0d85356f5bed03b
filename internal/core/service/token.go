package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/videotube/api/internal/core/domain"
)

// bcryptCost matches the cost the original user base was hashed with.
const bcryptCost = 10

// TokenConfig holds the signing material for both credential kinds. The
// access and refresh secrets are distinct so one class of token can never
// verify as the other.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// AccessClaims is the decoded payload of an access token.
type AccessClaims struct {
	UserID   string
	Username string
	Email    string
}

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash.
func VerifyPassword(hash, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// IssueAccessToken signs a short-lived token embedding the user's identity
// snapshot (id, username, email).
func IssueAccessToken(cfg TokenConfig, u *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      u.ID,
		"username": u.Username,
		"email":    u.Email,
		"exp":      time.Now().Add(cfg.AccessTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(cfg.AccessSecret))
}

// IssueRefreshToken signs a long-lived token carrying only the user id. The
// jti makes every issued token unique, so rotation always produces a value
// different from the one it replaces even within the same second.
func IssueRefreshToken(cfg TokenConfig, u *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": u.ID,
		"jti": uuid.NewString(),
		"exp": time.Now().Add(cfg.RefreshTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(cfg.RefreshSecret))
}

// VerifyAccessToken validates signature and expiry against the access secret
// and returns the embedded identity.
func VerifyAccessToken(cfg TokenConfig, token string) (*AccessClaims, error) {
	claims, err := parseHS256(token, cfg.AccessSecret)
	if err != nil {
		return nil, err
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, domain.ErrInvalidToken
	}
	username, _ := claims["username"].(string)
	email, _ := claims["email"].(string)
	return &AccessClaims{UserID: sub, Username: username, Email: email}, nil
}

// VerifyRefreshToken validates signature and expiry against the refresh
// secret and returns the embedded user id. It says nothing about whether the
// token is still the current slot value; that check belongs to the service.
func VerifyRefreshToken(cfg TokenConfig, token string) (string, error) {
	claims, err := parseHS256(token, cfg.RefreshSecret)
	if err != nil {
		return "", err
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", domain.ErrInvalidToken
	}
	return sub, nil
}

func parseHS256(token, secret string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
