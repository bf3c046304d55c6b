package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"billdesk/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "billdesk"

type CacheService interface {
	// Dashboard caching
	GetDashboard(ctx context.Context, owner string) (*models.DashboardSummary, error)
	SetDashboard(ctx context.Context, owner string, summary *models.DashboardSummary, ttl time.Duration) error
	InvalidateDashboard(ctx context.Context, owner string) error
	InvalidateAllDashboards(ctx context.Context) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client redis.UniversalClient
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

// NewCacheServiceWithClient wraps an existing client.
func NewCacheServiceWithClient(client redis.UniversalClient) CacheService {
	return &redisCacheService{client: client}
}

func dashboardKey(owner string) string {
	return fmt.Sprintf("%s:dashboard:%s", keyPrefix, owner)
}

func (r *redisCacheService) GetDashboard(ctx context.Context, owner string) (*models.DashboardSummary, error) {
	data, err := r.client.Get(ctx, dashboardKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var summary models.DashboardSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *redisCacheService) SetDashboard(ctx context.Context, owner string, summary *models.DashboardSummary, ttl time.Duration) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, dashboardKey(owner), data, ttl).Err()
}

func (r *redisCacheService) InvalidateDashboard(ctx context.Context, owner string) error {
	return r.client.Del(ctx, dashboardKey(owner)).Err()
}

func (r *redisCacheService) InvalidateAllDashboards(ctx context.Context) error {
	pattern := fmt.Sprintf("%s:dashboard:*", keyPrefix)
	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
