package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/savaki/static-site/internal/errors"
	"golang.org/x/time/rate"
)

// TimeoutError is returned when a bounded wait runs out of attempts
type TimeoutError struct {
	What     string
	Attempts int
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: not ready after %d attempts (%s)", e.What, e.Attempts, e.Elapsed.Round(time.Second))
}

func (e *TimeoutError) Unwrap() error {
	return errors.ErrTimeout
}

// Wait describes a bounded poll
type Wait struct {
	What        string
	Interval    time.Duration
	MaxAttempts int
}

// waitFor builds a Wait whose attempts cover timeout at the given interval
func waitFor(what string, interval, timeout time.Duration) Wait {
	attempts := 1
	if interval > 0 {
		attempts = int(timeout/interval) + 1
	}
	return Wait{What: what, Interval: interval, MaxAttempts: attempts}
}

// Poll calls check until it reports done, returns an error, or MaxAttempts
// is reached. Attempts are spaced by Interval; the first runs immediately.
func (w Wait) Poll(ctx context.Context, check func(ctx context.Context) (bool, error)) error {
	logger := zerolog.Ctx(ctx)
	limiter := rate.NewLimiter(rate.Every(w.Interval), 1)
	start := time.Now()

	for attempt := 1; attempt <= w.MaxAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for %s: %w", w.What, err)
		}

		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			logger.Debug().
				Str("what", w.What).
				Int("attempts", attempt).
				Msg("Wait complete")
			return nil
		}

		logger.Debug().
			Str("what", w.What).
			Int("attempt", attempt).
			Int("max", w.MaxAttempts).
			Msg("Still waiting")
	}

	return &TimeoutError{
		What:     w.What,
		Attempts: w.MaxAttempts,
		Elapsed:  time.Since(start),
	}
}
