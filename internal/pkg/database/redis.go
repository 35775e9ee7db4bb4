package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/danisworo/jalur/internal/pkg/models"
)

// RedisClient wraps the go-redis client with the small operation set the
// repositories need. The underlying Client is exported so tests can inject
// a client pointed at an in-memory server.
type RedisClient struct {
	Client *redis.Client
}

// NewRedisClient creates a new Redis client and verifies connectivity.
func NewRedisClient(config models.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{Client: client}, nil
}

// HSet sets hash fields
func (r *RedisClient) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	return r.Client.HSet(ctx, key, values).Err()
}

// HGetAll reads all fields of a hash
func (r *RedisClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return r.Client.HGetAll(ctx, key).Result()
}

// SAdd adds members to a set
func (r *RedisClient) SAdd(ctx context.Context, key string, members ...interface{}) error {
	return r.Client.SAdd(ctx, key, members...).Err()
}

// SRem removes members from a set and returns how many were removed
func (r *RedisClient) SRem(ctx context.Context, key string, members ...interface{}) (int64, error) {
	return r.Client.SRem(ctx, key, members...).Result()
}

// GeoAdd indexes a member at the given position
func (r *RedisClient) GeoAdd(ctx context.Context, key string, loc *redis.GeoLocation) error {
	return r.Client.GeoAdd(ctx, key, loc).Err()
}

// GeoRadius queries members within radius of a position
func (r *RedisClient) GeoRadius(ctx context.Context, key string, lng, lat float64, query *redis.GeoRadiusQuery) ([]redis.GeoLocation, error) {
	return r.Client.GeoRadius(ctx, key, lng, lat, query).Result()
}

// ZAdd adds scored members to a sorted set
func (r *RedisClient) ZAdd(ctx context.Context, key string, members ...*redis.Z) error {
	return r.Client.ZAdd(ctx, key, members...).Err()
}

// ZRem removes a member from a sorted set (GEO sets are sorted sets)
func (r *RedisClient) ZRem(ctx context.Context, key string, members ...interface{}) error {
	return r.Client.ZRem(ctx, key, members...).Err()
}

// ZRemRangeByScore removes sorted-set members whose score falls in [min, max]
func (r *RedisClient) ZRemRangeByScore(ctx context.Context, key, min, max string) error {
	return r.Client.ZRemRangeByScore(ctx, key, min, max).Err()
}

// ZCard returns the cardinality of a sorted set
func (r *RedisClient) ZCard(ctx context.Context, key string) (int64, error) {
	return r.Client.ZCard(ctx, key).Result()
}

// ZRangeWithScores reads sorted-set members with their scores, ascending
func (r *RedisClient) ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]redis.Z, error) {
	return r.Client.ZRangeWithScores(ctx, key, start, stop).Result()
}

// Expire sets a TTL on a key
func (r *RedisClient) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.Client.Expire(ctx, key, ttl).Err()
}

// Del removes keys
func (r *RedisClient) Del(ctx context.Context, keys ...string) error {
	return r.Client.Del(ctx, keys...).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.Client.Close()
}
