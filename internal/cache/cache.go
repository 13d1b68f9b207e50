package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"videoforge/internal/config"
	"videoforge/pkg/models"
)

// Cache provides video metadata caching and rendition claim locks using
// Redis.
type Cache struct {
	client *redis.Client
}

// New creates a new cache instance and verifies the connection.
func New(cfg config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// NewWithAddr creates a cache against a specific address, used in tests.
func NewWithAddr(addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Video metadata cache

func videoKey(videoID int64) string {
	return fmt.Sprintf("video:%d", videoID)
}

// SetVideo caches video metadata
func (c *Cache) SetVideo(ctx context.Context, video *models.Video, ttl time.Duration) error {
	data, err := json.Marshal(video)
	if err != nil {
		return fmt.Errorf("failed to marshal video: %w", err)
	}

	return c.client.Set(ctx, videoKey(video.ID), data, ttl).Err()
}

// GetVideo retrieves video metadata from cache. A miss returns (nil, nil).
func (c *Cache) GetVideo(ctx context.Context, videoID int64) (*models.Video, error) {
	data, err := c.client.Get(ctx, videoKey(videoID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get video from cache: %w", err)
	}

	var video models.Video
	if err := json.Unmarshal(data, &video); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video: %w", err)
	}

	return &video, nil
}

// DeleteVideo removes video metadata from cache
func (c *Cache) DeleteVideo(ctx context.Context, videoID int64) error {
	return c.client.Del(ctx, videoKey(videoID)).Err()
}

// Rendition claims
//
// A claim marks a (video, quality) pair as being generated. SET NX makes the
// claim atomic across concurrent requests; the TTL bounds how long a crashed
// worker can hold a label.

func claimKey(videoID int64, quality string) string {
	return fmt.Sprintf("rendition:claim:%d:%s", videoID, quality)
}

// ClaimQuality attempts to claim generation of a (video, quality) pair.
// Returns false if another request already holds the claim.
func (c *Cache) ClaimQuality(ctx context.Context, videoID int64, quality string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, claimKey(videoID, quality), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim quality: %w", err)
	}
	return ok, nil
}

// ReleaseQuality releases a claim after the rendition is persisted or its
// generation failed.
func (c *Cache) ReleaseQuality(ctx context.Context, videoID int64, quality string) error {
	return c.client.Del(ctx, claimKey(videoID, quality)).Err()
}
