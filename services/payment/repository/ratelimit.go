package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/danisworo/jalur/internal/pkg/constants"
	"github.com/danisworo/jalur/internal/pkg/database"
)

// RateLimitRepo implements a sliding-window settlement limiter over Redis.
// Each attempt is a sorted-set member scored with its millisecond timestamp;
// counting attempts inside the window is a prune plus a cardinality check,
// so the limit slides with the rider's actual attempt times instead of
// resetting on a fixed boundary.
type RateLimitRepo struct {
	redisClient *database.RedisClient
	maxAttempts int
	window      time.Duration
}

// NewRateLimitRepository creates a new settlement rate limiter
func NewRateLimitRepository(redisClient *database.RedisClient, maxAttempts, windowSec int) *RateLimitRepo {
	return &RateLimitRepo{
		redisClient: redisClient,
		maxAttempts: maxAttempts,
		window:      time.Duration(windowSec) * time.Second,
	}
}

// Allow consumes one attempt for the rider. When the window is full it
// reports the reset time: the moment the oldest in-window attempt ages out.
func (r *RateLimitRepo) Allow(ctx context.Context, riderID string) (bool, time.Time, error) {
	key := fmt.Sprintf(constants.KeyPaymentRateLimit, riderID)
	now := time.Now()
	windowStart := now.Add(-r.window)

	if err := r.redisClient.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixMilli())); err != nil {
		return false, time.Time{}, fmt.Errorf("failed to prune rate limit window: %w", err)
	}

	count, err := r.redisClient.ZCard(ctx, key)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("failed to count rate limit attempts: %w", err)
	}

	if count >= int64(r.maxAttempts) {
		oldest, err := r.redisClient.ZRangeWithScores(ctx, key, 0, 0)
		if err != nil || len(oldest) == 0 {
			return false, now.Add(r.window), nil
		}
		resetAt := time.UnixMilli(int64(oldest[0].Score)).Add(r.window)
		return false, resetAt, nil
	}

	err = r.redisClient.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	if err != nil {
		return false, time.Time{}, fmt.Errorf("failed to record rate limit attempt: %w", err)
	}
	if err := r.redisClient.Expire(ctx, key, r.window); err != nil {
		return false, time.Time{}, fmt.Errorf("failed to set rate limit expiry: %w", err)
	}
	return true, time.Time{}, nil
}
