package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/videotube/api/internal/core/domain"
	"github.com/videotube/api/internal/core/ports"
)

// ProfileCache abstracts the short-TTL cache for the viewer-independent part
// of a channel profile (Redis). A miss or cache error falls through to the
// store; the viewer's IsSubscribed flag is never cached.
type ProfileCache interface {
	Get(ctx context.Context, username string) (*ports.ChannelProfile, bool, error)
	Set(ctx context.Context, username string, profile *ports.ChannelProfile) error
	Invalidate(ctx context.Context, username string) error
}

type profileService struct {
	users  ports.UserRepository
	subs   ports.SubscriptionRepository
	videos ports.VideoRepository
	media  ports.MediaStore
	cache  ProfileCache
	log    zerolog.Logger
}

// NewProfileService returns a ProfileService implementation.
func NewProfileService(
	users ports.UserRepository,
	subs ports.SubscriptionRepository,
	videos ports.VideoRepository,
	media ports.MediaStore,
	cache ProfileCache,
	log zerolog.Logger,
) ports.ProfileService {
	return &profileService{users: users, subs: subs, videos: videos, media: media, cache: cache, log: log}
}

// GetChannelProfile serves the cached projection when fresh, resolving only
// the viewer-specific flag separately; otherwise it runs the full aggregation
// and repopulates the cache.
func (s *profileService) GetChannelProfile(ctx context.Context, viewerID, username string) (*ports.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, domain.ErrFieldsRequired
	}

	if cached, ok, err := s.cache.Get(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("profile cache read failed")
	} else if ok {
		profile := *cached
		profile.IsSubscribed = false
		if viewerID != "" {
			channel, err := s.users.FindByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			subscribed, err := s.subs.Exists(ctx, viewerID, channel.ID)
			if err != nil {
				return nil, err
			}
			profile.IsSubscribed = subscribed
		}
		return &profile, nil
	}

	profile, err := s.users.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		return nil, err
	}

	cacheable := *profile
	cacheable.IsSubscribed = false
	if err := s.cache.Set(ctx, username, &cacheable); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("profile cache write failed")
	}

	return profile, nil
}

// GetWatchHistory expands the stored id list into videos with owner
// projections, preserving the stored order exactly. The joins run as separate
// queries combined here because a store-side lookup would not keep the list
// order.
func (s *profileService) GetWatchHistory(ctx context.Context, viewerID string) ([]ports.WatchHistoryItem, error) {
	user, err := s.users.FindByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	items := make([]ports.WatchHistoryItem, 0, len(user.WatchHistory))
	if len(user.WatchHistory) == 0 {
		return items, nil
	}

	videos, err := s.videos.FindByIDs(ctx, user.WatchHistory)
	if err != nil {
		return nil, err
	}
	videoByID := make(map[string]*domain.Video, len(videos))
	ownerIDs := make([]string, 0, len(videos))
	for _, v := range videos {
		videoByID[v.ID] = v
		ownerIDs = append(ownerIDs, v.OwnerID)
	}

	owners, err := s.users.FindByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	ownerByID := make(map[string]*domain.User, len(owners))
	for _, o := range owners {
		ownerByID[o.ID] = o
	}

	for _, id := range user.WatchHistory {
		v, ok := videoByID[id]
		if !ok {
			// history can reference a since-deleted video
			continue
		}
		item := ports.WatchHistoryItem{
			ID:          v.ID,
			Title:       v.Title,
			Description: v.Description,
			VideoFile:   v.VideoFile,
			Thumbnail:   v.Thumbnail,
			Duration:    v.Duration,
			Views:       v.Views,
			CreatedAt:   v.CreatedAt,
		}
		if o, ok := ownerByID[v.OwnerID]; ok {
			item.Owner = ports.VideoOwner{Username: o.Username, FullName: o.FullName, Avatar: o.Avatar}
		}
		items = append(items, item)
	}

	return items, nil
}

// ToggleSubscription flips the edge towards the channel named by username and
// invalidates the channel's cached counts.
func (s *profileService) ToggleSubscription(ctx context.Context, subscriberID, channelUsername string) (bool, error) {
	channelUsername = strings.ToLower(strings.TrimSpace(channelUsername))
	if channelUsername == "" {
		return false, domain.ErrFieldsRequired
	}

	channel, err := s.users.FindByUsername(ctx, channelUsername)
	if err != nil {
		return false, err
	}
	if channel.ID == subscriberID {
		return false, domain.ErrSelfSubscription
	}

	subscribed, err := s.subs.Toggle(ctx, subscriberID, channel.ID)
	if err != nil {
		return false, err
	}

	if err := s.cache.Invalidate(ctx, channelUsername); err != nil {
		s.log.Warn().Err(err).Str("username", channelUsername).Msg("profile cache invalidation failed")
	}

	s.log.Info().
		Str("subscriber", subscriberID).
		Str("channel", channel.ID).
		Bool("subscribed", subscribed).
		Msg("subscription toggled")

	return subscribed, nil
}

// RecordWatch prepends the video to the viewer's history (newest first,
// deduplicated by moving an existing entry to the front) and bumps the view
// counter.
func (s *profileService) RecordWatch(ctx context.Context, viewerID, videoID string) error {
	if _, err := s.videos.FindByID(ctx, videoID); err != nil {
		return err
	}
	if err := s.videos.IncrementViews(ctx, videoID); err != nil {
		return err
	}
	return s.users.PushWatchHistory(ctx, viewerID, videoID)
}

const (
	videoFolder     = "videos"
	thumbnailFolder = "thumbnails"
)

// PublishVideo uploads both assets before any record is written, mirroring
// the register flow: a failed upload never leaves a partial video.
func (s *profileService) PublishVideo(ctx context.Context, input ports.PublishVideoInput) (*ports.PublishVideoResult, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || strings.TrimSpace(input.Description) == "" {
		return nil, domain.ErrFieldsRequired
	}
	if input.VideoFile == nil || input.Thumbnail == nil {
		return nil, domain.ErrFieldsRequired
	}

	videoURL, err := s.media.Upload(ctx, videoFolder, input.VideoFile)
	if err != nil {
		s.log.Error().Err(err).Str("owner", input.OwnerID).Msg("video upload failed")
		return nil, domain.ErrUploadFailed
	}
	thumbURL, err := s.media.Upload(ctx, thumbnailFolder, input.Thumbnail)
	if err != nil {
		s.log.Error().Err(err).Str("owner", input.OwnerID).Msg("thumbnail upload failed")
		return nil, domain.ErrUploadFailed
	}

	created, err := s.videos.Create(ctx, &domain.Video{
		OwnerID:     input.OwnerID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		VideoFile:   videoURL,
		Thumbnail:   thumbURL,
		Duration:    input.Duration,
		IsPublished: true,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("video_id", created.ID).Str("owner", input.OwnerID).Msg("video published")

	return &ports.PublishVideoResult{
		ID:        created.ID,
		Title:     created.Title,
		VideoFile: created.VideoFile,
		Thumbnail: created.Thumbnail,
		CreatedAt: created.CreatedAt,
	}, nil
}
