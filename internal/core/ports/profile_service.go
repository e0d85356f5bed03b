package ports

import (
	"context"
	"time"
)

// VideoOwner is the reduced owner projection embedded in watch-history items.
type VideoOwner struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Avatar   string `json:"avatar"`
}

// WatchHistoryItem is a watched video expanded with its owner.
type WatchHistoryItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	VideoFile   string     `json:"video_file"`
	Thumbnail   string     `json:"thumbnail"`
	Duration    float64    `json:"duration"`
	Views       int64      `json:"views"`
	CreatedAt   time.Time  `json:"created_at"`
	Owner       VideoOwner `json:"owner"`
}

// PublishVideoInput carries the data needed to publish a new video.
type PublishVideoInput struct {
	OwnerID     string
	Title       string
	Description string
	Duration    float64
	VideoFile   *FileUpload
	Thumbnail   *FileUpload
}

// PublishVideoResult is returned after a successful publish.
type PublishVideoResult struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	VideoFile string    `json:"video_file"`
	Thumbnail string    `json:"thumbnail"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileService defines the aggregation and relationship use cases.
type ProfileService interface {
	// GetChannelProfile computes subscriber counts and the viewer's
	// subscription flag for the channel identified by username. viewerID may
	// be empty.
	GetChannelProfile(ctx context.Context, viewerID, username string) (*ChannelProfile, error)
	// GetWatchHistory expands the viewer's history list in stored order
	// (newest first). An empty history yields an empty slice.
	GetWatchHistory(ctx context.Context, viewerID string) ([]WatchHistoryItem, error)
	// ToggleSubscription flips the subscriber→channel edge and reports the
	// resulting state.
	ToggleSubscription(ctx context.Context, subscriberID, channelUsername string) (bool, error)
	// RecordWatch prepends the video to the viewer's history and bumps views.
	RecordWatch(ctx context.Context, viewerID, videoID string) error
	PublishVideo(ctx context.Context, input PublishVideoInput) (*PublishVideoResult, error)
}
