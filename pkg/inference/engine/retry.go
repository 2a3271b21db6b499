package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
)

// RetryConfig controls retries of failed backend calls. MaxRetries of zero
// means a failed call fails the turn right away.
type RetryConfig struct {
	MaxRetries uint64        `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 0,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   8 * time.Second,
	}
}

// WithRetry retries failed decisions with exponential backoff. Cancellation
// of ctx is never retried.
func WithRetry(cfg RetryConfig) Middleware {
	return func(next Engine) Engine {
		if cfg.MaxRetries == 0 {
			return next
		}
		return EngineFunc(func(ctx context.Context, req *Request) (Decision, error) {
			base := cfg.BaseDelay
			if base <= 0 {
				base = DefaultRetryConfig().BaseDelay
			}
			backoff := retry.NewExponential(base)
			if cfg.MaxDelay > 0 {
				backoff = retry.WithCappedDuration(cfg.MaxDelay, backoff)
			}
			backoff = retry.WithMaxRetries(cfg.MaxRetries, backoff)

			var decision Decision
			attempt := 0
			err := retry.Do(ctx, backoff, func(ctx context.Context) error {
				attempt++
				d, err := next.Decide(ctx, req)
				if err == nil {
					decision = d
					return nil
				}
				if ctx.Err() != nil {
					return err
				}
				log.Warn().Err(err).Int("attempt", attempt).Msg("backend call failed, retrying")
				return retry.RetryableError(err)
			})
			if err != nil {
				return nil, err
			}
			return decision, nil
		})
	}
}
