package graph

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig configures retry behavior for a node function
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors func(error) bool // Determines if an error should trigger retry
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// WithRetry wraps fn with exponential backoff. Nothing in the graph retries
// implicitly; callers opt in per node:
//
//	g.AddNode("researcher", "", graph.WithRetry(agent.Invoke, graph.DefaultRetryConfig()))
func WithRetry[S any](fn NodeFunc[S], config RetryConfig) NodeFunc[S] {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.BackoffFactor < 1 {
		config.BackoffFactor = 1
	}

	return func(ctx context.Context, state S) (S, error) {
		var (
			zero    S
			lastErr error
		)
		delay := config.InitialDelay

		for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return zero, fmt.Errorf("retry cancelled: %w", err)
			}

			result, err := fn(ctx, state)
			if err == nil {
				return result, nil
			}
			lastErr = err

			if config.RetryableErrors != nil && !config.RetryableErrors(err) {
				return zero, err
			}

			// Don't sleep after the last attempt
			if attempt < config.MaxAttempts {
				select {
				case <-time.After(delay):
					delay = time.Duration(float64(delay) * config.BackoffFactor)
					if config.MaxDelay > 0 {
						delay = min(delay, config.MaxDelay)
					}
				case <-ctx.Done():
					return zero, fmt.Errorf("retry cancelled during backoff: %w", ctx.Err())
				}
			}
		}

		return zero, fmt.Errorf("max retries (%d) exceeded: %w", config.MaxAttempts, lastErr)
	}
}
