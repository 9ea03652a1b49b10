// Package retry provides exponential backoff for provider transport calls.
// The diff engine itself never retries; policy lives with the providers.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Config configures retry behavior with exponential backoff.
type Config struct {
	MaxRetries int           // maximum retry attempts after the first try
	BaseDelay  time.Duration // delay before the first retry
	MaxDelay   time.Duration // cap on the backoff delay
	Multiplier float64       // exponential growth factor
	Jitter     bool          // randomize delays to avoid thundering herd
}

// DefaultConfig returns a retry configuration with sensible defaults for
// hosting-platform API calls.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// Permanent wraps an error that must not be retried, such as a 404 that has
// a defined meaning for the caller.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string { return p.Err.Error() }

func (p *Permanent) Unwrap() error { return p.Err }

// Do runs op with backoff until it succeeds, returns a Permanent error, the
// retries are exhausted, or ctx is done. The returned error is the last one
// op produced.
func Do(ctx context.Context, cfg Config, op func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := cfg.delayFor(attempt)
			log.Debug().
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("retrying after backoff")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := op()
		if err == nil {
			return nil
		}
		var perm *Permanent
		if errors.As(err, &perm) {
			return err
		}
		lastErr = err
	}

	return lastErr
}

func (c Config) delayFor(attempt int) time.Duration {
	delay := float64(c.BaseDelay) * math.Pow(c.Multiplier, float64(attempt-1))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}
	if c.Jitter {
		delay *= 0.5 + rand.Float64()/2
	}
	return time.Duration(delay)
}
