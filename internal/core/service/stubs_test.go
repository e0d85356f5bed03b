package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/videotube/api/internal/core/domain"
	"github.com/videotube/api/internal/core/ports"
)

// stubUserRepo is an in-memory ports.UserRepository. Subscription edges live
// in an attached stubSubRepo so ChannelProfile can compute real counts.
type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
	subs   *stubSubRepo

	createCalls int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User), subs: newStubSubRepo()}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.WatchHistory = append([]string(nil), u.WatchHistory...)
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.createCalls++
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	clone := cloneUser(user)
	clone.ID = "user_" + strconv.Itoa(r.nextID)
	r.users[clone.ID] = clone
	return cloneUser(clone), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == identifier || u.Email == identifier {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.User, error) {
	var out []*domain.User
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := r.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *stubUserRepo) UpdateRefreshToken(_ context.Context, id, token string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshToken = token
	return nil
}

func (r *stubUserRepo) ClearRefreshToken(_ context.Context, id string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshToken = ""
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *stubUserRepo) UpdateAccount(_ context.Context, id, fullName, email string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.FullName = fullName
	u.Email = email
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateAvatar(_ context.Context, id, avatarURL string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Avatar = avatarURL
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateCoverImage(_ context.Context, id, coverURL string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.CoverImage = coverURL
	return cloneUser(u), nil
}

func (r *stubUserRepo) PushWatchHistory(_ context.Context, id, videoID string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	history := []string{videoID}
	for _, existing := range u.WatchHistory {
		if existing != videoID {
			history = append(history, existing)
		}
	}
	u.WatchHistory = history
	return nil
}

func (r *stubUserRepo) ChannelProfile(_ context.Context, username, viewerID string) (*ports.ChannelProfile, error) {
	var channel *domain.User
	for _, u := range r.users {
		if u.Username == username {
			channel = u
			break
		}
	}
	if channel == nil {
		return nil, domain.ErrUserNotFound
	}

	profile := &ports.ChannelProfile{
		Username:   channel.Username,
		FullName:   channel.FullName,
		Email:      channel.Email,
		Avatar:     channel.Avatar,
		CoverImage: channel.CoverImage,
	}
	for edge := range r.subs.edges {
		sub, ch, _ := splitEdge(edge)
		if ch == channel.ID {
			profile.SubscriberCount++
			if viewerID != "" && sub == viewerID {
				profile.IsSubscribed = true
			}
		}
		if sub == channel.ID {
			profile.SubscribedTo++
		}
	}
	return profile, nil
}

// stubSubRepo is an in-memory ports.SubscriptionRepository keyed by
// "subscriber→channel".
type stubSubRepo struct {
	edges map[string]bool
}

func newStubSubRepo() *stubSubRepo {
	return &stubSubRepo{edges: make(map[string]bool)}
}

func edgeKey(subscriberID, channelID string) string {
	return subscriberID + "\x00" + channelID
}

func splitEdge(key string) (subscriber, channel string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == 0 {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}

func (r *stubSubRepo) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	key := edgeKey(subscriberID, channelID)
	if r.edges[key] {
		delete(r.edges, key)
		return false, nil
	}
	r.edges[key] = true
	return true, nil
}

func (r *stubSubRepo) Exists(_ context.Context, subscriberID, channelID string) (bool, error) {
	return r.edges[edgeKey(subscriberID, channelID)], nil
}

// stubVideoRepo is an in-memory ports.VideoRepository.
type stubVideoRepo struct {
	videos map[string]*domain.Video
	nextID int
}

func newStubVideoRepo() *stubVideoRepo {
	return &stubVideoRepo{videos: make(map[string]*domain.Video)}
}

func (r *stubVideoRepo) Create(_ context.Context, v *domain.Video) (*domain.Video, error) {
	r.nextID++
	clone := *v
	clone.ID = "video_" + strconv.Itoa(r.nextID)
	r.videos[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubVideoRepo) FindByID(_ context.Context, id string) (*domain.Video, error) {
	if v, ok := r.videos[id]; ok {
		clone := *v
		return &clone, nil
	}
	return nil, domain.ErrVideoNotFound
}

func (r *stubVideoRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.Video, error) {
	var out []*domain.Video
	for _, id := range ids {
		if v, ok := r.videos[id]; ok {
			clone := *v
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubVideoRepo) IncrementViews(_ context.Context, id string) error {
	v, ok := r.videos[id]
	if !ok {
		return domain.ErrVideoNotFound
	}
	v.Views++
	return nil
}

// stubMediaStore records uploads and optionally fails.
type stubMediaStore struct {
	uploads int
	fail    bool
}

func (s *stubMediaStore) Upload(_ context.Context, folder string, file *ports.FileUpload) (string, error) {
	if s.fail {
		return "", errors.New("upload rejected")
	}
	s.uploads++
	return fmt.Sprintf("https://media.test/%s/%s", folder, file.Filename), nil
}

// memProfileCache is an in-memory ProfileCache.
type memProfileCache struct {
	entries     map[string]*ports.ChannelProfile
	invalidated int
}

func newMemProfileCache() *memProfileCache {
	return &memProfileCache{entries: make(map[string]*ports.ChannelProfile)}
}

func (c *memProfileCache) Get(_ context.Context, username string) (*ports.ChannelProfile, bool, error) {
	if p, ok := c.entries[username]; ok {
		clone := *p
		return &clone, true, nil
	}
	return nil, false, nil
}

func (c *memProfileCache) Set(_ context.Context, username string, profile *ports.ChannelProfile) error {
	clone := *profile
	c.entries[username] = &clone
	return nil
}

func (c *memProfileCache) Invalidate(_ context.Context, username string) error {
	c.invalidated++
	delete(c.entries, username)
	return nil
}
