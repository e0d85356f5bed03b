package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/videotube/api/internal/core/ports"
)

const profileTTL = 30 * time.Second

// ProfileCache caches the viewer-independent channel profile projection.
// Key format: profile:<username>
type ProfileCache struct {
	client *redis.Client
}

// NewProfileCache creates a ProfileCache wrapping the given Redis client.
func NewProfileCache(client *redis.Client) *ProfileCache {
	return &ProfileCache{client: client}
}

// Get returns the cached profile and whether it was present.
func (c *ProfileCache) Get(ctx context.Context, username string) (*ports.ChannelProfile, bool, error) {
	raw, err := c.client.Get(ctx, c.key(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("profile cache get: %w", err)
	}

	var profile ports.ChannelProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, false, fmt.Errorf("profile cache decode: %w", err)
	}
	return &profile, true, nil
}

// Set stores the profile for profileTTL.
func (c *ProfileCache) Set(ctx context.Context, username string, profile *ports.ChannelProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("profile cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(username), raw, profileTTL).Err()
}

// Invalidate drops the cached profile after a subscription change.
func (c *ProfileCache) Invalidate(ctx context.Context, username string) error {
	return c.client.Del(ctx, c.key(username)).Err()
}

func (c *ProfileCache) key(username string) string {
	return "profile:" + username
}
