package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/hashlink/internal/models"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by CacheRepository.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository caches links by short code. Click counts in cached values
// are not kept up to date.
type CacheRepository interface {
	Get(ctx context.Context, code string) (*models.Link, error)
	Set(ctx context.Context, link *models.Link, ttl time.Duration) error
}

type cacheRepository struct {
	redis *RedisDB
}

func NewCacheRepository(redis *RedisDB) CacheRepository {
	return &cacheRepository{redis: redis}
}

func (r *cacheRepository) Get(ctx context.Context, code string) (*models.Link, error) {
	data, err := r.redis.Client.Get(ctx, r.key(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var link models.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link: %w", err)
	}

	return &link, nil
}

func (r *cacheRepository) Set(ctx context.Context, link *models.Link, ttl time.Duration) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to marshal link: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(link.ShortCode), data, ttl).Err()
}

func (r *cacheRepository) key(code string) string {
	return "link:" + code
}

type nopCache struct{}

// NewNopCache returns a cache that stores nothing.
func NewNopCache() CacheRepository {
	return nopCache{}
}

func (nopCache) Get(context.Context, string) (*models.Link, error) {
	return nil, ErrCacheMiss
}

func (nopCache) Set(context.Context, *models.Link, time.Duration) error {
	return nil
}
