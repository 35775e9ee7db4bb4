// Package retry implements bounded exponential backoff for calls to
// external collaborators. Payment capture never goes through this path; a
// capture timeout must re-check the idempotency key instead of re-charging.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/danisworo/jalur/internal/pkg/logger"
)

// RetryableFunc represents a function that can be retried
type RetryableFunc func(ctx context.Context) error

// Config holds retry configuration
type Config struct {
	MaxRetries    int              // maximum retry attempts after the first call
	BaseDelay     time.Duration    // delay before the first retry
	MaxDelay      time.Duration    // cap on the backoff delay
	Multiplier    float64          // exponential backoff multiplier
	Jitter        bool             // randomize delays to avoid thundering herds
	RetryableFunc func(error) bool // decides whether an error is retryable
}

// DefaultConfig returns the default retry configuration: two retries with
// exponential backoff.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 2,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
		RetryableFunc: func(err error) bool {
			return true
		},
	}
}

// Retrier handles retry logic with exponential backoff
type Retrier struct {
	config Config
}

// New creates a new retrier with the given configuration
func New(config Config) *Retrier {
	return &Retrier{config: config}
}

// NewWithDefaults creates a new retrier with default configuration
func NewWithDefaults() *Retrier {
	return New(DefaultConfig())
}

// Execute runs fn, retrying retryable failures with exponential backoff
// until the attempts are exhausted or the context is cancelled.
func (r *Retrier) Execute(ctx context.Context, fn RetryableFunc) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Debug("call succeeded after retries",
					logger.Int("attempts", attempt+1))
			}
			return nil
		}
		lastErr = err

		if !r.config.RetryableFunc(err) {
			return err
		}
		if attempt == r.config.MaxRetries {
			break
		}

		delay := r.delayFor(attempt)
		logger.Debug("retrying after backoff",
			logger.Int("attempt", attempt+1),
			logger.Duration("delay", delay),
			logger.Err(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

func (r *Retrier) delayFor(attempt int) time.Duration {
	delay := float64(r.config.BaseDelay) * math.Pow(r.config.Multiplier, float64(attempt))
	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}
	if r.config.Jitter {
		delay = delay/2 + rand.Float64()*delay/2
	}
	return time.Duration(delay)
}
