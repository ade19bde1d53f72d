package agent

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/alexschlessinger/saintsal/llm"
)

// RetryPolicy defines bounded exponential backoff for completion calls
type RetryPolicy struct {
	MaxRetries        int           // Maximum number of retry attempts (0 = no retries)
	InitialDelay      time.Duration // Delay before the first retry
	MaxDelay          time.Duration // Maximum delay between retries
	BackoffMultiplier float64       // Multiplier for exponential backoff
}

// DefaultRetryPolicy returns the policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		InitialDelay:      500 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// CalculateDelay returns the delay before retry number retryCount (0-based)
func (p RetryPolicy) CalculateDelay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return p.InitialDelay
	}

	delay := float64(p.InitialDelay) * math.Pow(p.BackoffMultiplier, float64(retryCount))
	if p.MaxDelay > 0 && time.Duration(delay) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// ShouldRetry reports whether another attempt is allowed after retryCount retries
func (p RetryPolicy) ShouldRetry(retryCount int) bool {
	return retryCount < p.MaxRetries
}

// Validate checks the policy configuration
func (p RetryPolicy) Validate() error {
	if p.MaxRetries < 0 {
		return errors.New("MaxRetries must be non-negative")
	}
	if p.MaxRetries == 0 {
		return nil
	}
	if p.InitialDelay <= 0 {
		return errors.New("InitialDelay must be positive")
	}
	if p.MaxDelay <= 0 {
		return errors.New("MaxDelay must be positive")
	}
	if p.BackoffMultiplier <= 0 {
		return errors.New("BackoffMultiplier must be positive")
	}
	if p.InitialDelay > p.MaxDelay {
		return errors.New("InitialDelay cannot be greater than MaxDelay")
	}
	return nil
}

// IsRetriable reports whether a completion failure is transient: provider
// rate limiting, provider server errors, and attempt timeouts.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	return llm.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded)
}
