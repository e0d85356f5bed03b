package ports

import (
	"context"

	"github.com/videotube/api/internal/core/domain"
)

// VideoRepository defines persistence operations for videos.
type VideoRepository interface {
	Create(ctx context.Context, v *domain.Video) (*domain.Video, error)
	FindByID(ctx context.Context, id string) (*domain.Video, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Video, error)
	IncrementViews(ctx context.Context, id string) error
}
