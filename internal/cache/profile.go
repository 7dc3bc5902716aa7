package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"vidtube/internal/model"
)

const (
	// ProfileCachePrefix is the key prefix for channel profile caches
	ProfileCachePrefix = "channel:"

	// ProfileCacheTTL keeps cached profiles short-lived so subscriber counts
	// stay close to the truth without explicit invalidation
	ProfileCacheTTL = 30 * time.Second
)

// ProfileCache caches aggregated channel profiles in Redis. Profiles carry a
// viewer-specific is_subscribed flag, so keys include the viewer identity.
type ProfileCache struct {
	client *redis.Client
}

// NewProfileCache creates a ProfileCache backed by Redis.
func NewProfileCache(client *redis.Client) *ProfileCache {
	return &ProfileCache{client: client}
}

// profileKey returns the Redis key for a channel profile as seen by a viewer.
// Anonymous viewers share the zero-viewer key.
func profileKey(username string, viewerID *int64) string {
	var viewer int64
	if viewerID != nil {
		viewer = *viewerID
	}
	return fmt.Sprintf("%s%s:viewer:%d", ProfileCachePrefix, username, viewer)
}

// Get returns the cached profile and whether it was found. Errors are logged
// and treated as misses so the caller falls through to the database.
func (c *ProfileCache) Get(ctx context.Context, username string, viewerID *int64) (*model.ChannelProfile, bool) {
	key := profileKey(username, viewerID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[ProfileCache] Get FAILED: key=%s err=%v", key, err)
		return nil, false
	}

	var profile model.ChannelProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		log.Printf("[ProfileCache] Get unmarshal FAILED: key=%s err=%v", key, err)
		return nil, false
	}

	return &profile, true
}

// Set stores a profile with the cache TTL. Failures are logged, never surfaced.
func (c *ProfileCache) Set(ctx context.Context, username string, viewerID *int64, profile *model.ChannelProfile) {
	key := profileKey(username, viewerID)

	data, err := json.Marshal(profile)
	if err != nil {
		log.Printf("[ProfileCache] Set marshal FAILED: key=%s err=%v", key, err)
		return
	}

	if err := c.client.Set(ctx, key, data, ProfileCacheTTL).Err(); err != nil {
		log.Printf("[ProfileCache] Set FAILED: key=%s err=%v", key, err)
	}
}
