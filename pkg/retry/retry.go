package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/replicate/pcat/pkg/logging"
)

const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 100 * time.Millisecond
	DefaultMultiplier   = 2.0
	DefaultMaxDelay     = 5 * time.Second
	DefaultJitter       = 500 * time.Millisecond
)

// Policy describes an exponential backoff schedule for reattempting a failed
// operation. The zero value runs the operation once and never retries.
type Policy struct {
	// MaxAttempts bounds the total number of tries, the first one included.
	MaxAttempts int
	// InitialDelay is the backoff after the first failed attempt.
	InitialDelay time.Duration
	// Multiplier grows the backoff after every further failure.
	Multiplier float64
	// MaxDelay caps the backoff regardless of how far the schedule has grown.
	MaxDelay time.Duration
	// Jitter is the upper bound of the random extra sleep added to each
	// backoff so parallel retries don't stampede in lockstep.
	Jitter time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Multiplier:   DefaultMultiplier,
		MaxDelay:     DefaultMaxDelay,
		Jitter:       DefaultJitter,
	}
}

// Delay returns the backoff after the given failed attempt, counting from 1.
// It is deterministic, jitter is applied by Do.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	backoff := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if ceiling := float64(p.MaxDelay); backoff > ceiling {
		backoff = ceiling
	}
	return time.Duration(backoff)
}

// Do runs op until it succeeds, fails with an error retryable rejects, or the
// attempt budget is spent. Backoff sleeps are cut short when ctx is done.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, op func() error) error {
	logger := logging.GetLogger()
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt >= p.MaxAttempts {
			return fmt.Errorf("failed after %d attempts: %w", attempt, err)
		}

		delay := p.Delay(attempt)
		if p.Jitter > 0 {
			delay += time.Duration(rand.Int63n(int64(p.Jitter)))
		}
		logger.Debug().
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(err).
			Msg("retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
