package bybit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls exponential backoff for API calls.
type RetryConfig struct {
	MaxRetries      int           `json:"max_retries" yaml:"max_retries"`
	InitialDelay    time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay        time.Duration `json:"max_delay" yaml:"max_delay"`
	BackoffFactor   float64       `json:"backoff_factor" yaml:"backoff_factor"`
	JitterEnabled   bool          `json:"jitter_enabled" yaml:"jitter_enabled"`
	RetryableErrors []int         `json:"retryable_errors" yaml:"retryable_errors"`
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialDelay:    time.Second,
		MaxDelay:        30 * time.Second,
		BackoffFactor:   2.0,
		JitterEnabled:   true,
		RetryableErrors: []int{ErrCodeRateLimitExceeded},
	}
}

// WithRetry replaces the retry configuration.
func (c *Client) WithRetry(config RetryConfig) *Client {
	c.retry = config
	return c
}

// RetryWithConfig runs fn until it succeeds, fails with a non-retryable
// error, or exhausts config.MaxRetries.
func (c *Client) RetryWithConfig(ctx context.Context, fn func() error, config RetryConfig) error {
	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == config.MaxRetries || !isRetryable(err, config.RetryableErrors) {
			break
		}

		delay := calculateDelay(attempt, config)
		c.logger.Warn().Err(err).Int("attempt", attempt+1).Dur("delay", delay).Msg("retrying bybit request")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	if attempts := config.MaxRetries + 1; attempts > 1 && isRetryable(lastErr, config.RetryableErrors) {
		return fmt.Errorf("retry exhausted after %d attempts: %w", attempts, lastErr)
	}
	return lastErr
}

func isRetryable(err error, codes []int) bool {
	if IsRetryableError(err) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		for _, code := range codes {
			if apiErr.Code == code {
				return true
			}
		}
	}
	return false
}

func calculateDelay(attempt int, config RetryConfig) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt)))
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	if config.JitterEnabled {
		delay += time.Duration(float64(delay) * 0.1 * (2*rand.Float64() - 1))
	}
	return delay
}
