package ports

import (
	"context"

	"github.com/videotube/api/internal/core/domain"
)

// ChannelProfile is the aggregated per-viewer channel view. The counts and the
// projection are viewer-independent; IsSubscribed depends on the viewer.
type ChannelProfile struct {
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Avatar          string `json:"avatar"`
	CoverImage      string `json:"cover_image,omitempty"`
	SubscriberCount int64  `json:"subscriber_count"`
	SubscribedTo    int64  `json:"subscribed_to_count"`
	IsSubscribed    bool   `json:"is_subscribed"`
}

// UserRepository defines persistence operations for user records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// FindByIdentifier matches either username or email.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error)

	// UpdateRefreshToken overwrites the single refresh-token slot.
	UpdateRefreshToken(ctx context.Context, id, token string) error
	// ClearRefreshToken unsets the slot entirely (logout), as opposed to
	// writing an empty value.
	ClearRefreshToken(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAccount(ctx context.Context, id, fullName, email string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) (*domain.User, error)
	UpdateCoverImage(ctx context.Context, id, coverURL string) (*domain.User, error)

	// PushWatchHistory prepends videoID to the user's watch history, moving an
	// existing occurrence to the front instead of duplicating it.
	PushWatchHistory(ctx context.Context, id, videoID string) error

	// ChannelProfile resolves a channel by username and joins it against the
	// subscription edges in a single query. viewerID may be empty (anonymous
	// viewers are never subscribed).
	ChannelProfile(ctx context.Context, username, viewerID string) (*ChannelProfile, error)
}
