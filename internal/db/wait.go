package db

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

type WaitOptions struct {
	// Attempts <= 0 waits until ctx is done.
	Attempts int
	// Backoff returns the pause after the given failed attempt (0-based).
	Backoff func(attempt int) time.Duration
	Log     *slog.Logger
}

// WaitFor calls ping until it succeeds, the attempts are used up, or ctx is
// done.
func WaitFor(ctx context.Context, ping func(context.Context) error, opts WaitOptions) error {
	if opts.Backoff == nil {
		opts.Backoff = ExponentialBackoff
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	opts.Log.Info("waiting for database")

	for attempt := 0; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := ping(pingCtx)
		cancel()

		if err == nil {
			opts.Log.Info("database available", "attempts", attempt+1)
			return nil
		}

		if opts.Attempts > 0 && attempt+1 >= opts.Attempts {
			return fmt.Errorf("database unavailable after %d attempts: %w", attempt+1, err)
		}

		delay := opts.Backoff(attempt)
		opts.Log.Warn("database unavailable, retrying", "attempt", attempt+1, "delay", delay.String(), "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func ExponentialBackoff(attempt int) time.Duration {
	base := 1 * time.Second

	capDelay := 30 * time.Second
	// attempt=0 => 1s
	// attempt=1 => 2s
	// attempt=2 => 4s

	multiple := math.Pow(2, float64(attempt))
	delay := time.Duration(float64(base) * multiple)

	if delay > capDelay {
		delay = capDelay
	}

	// small jitter (0–250ms) so replicas do not retry in lockstep
	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}
