package db

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noDelay(int) time.Duration { return 0 }

func TestWaitFor_Ready(t *testing.T) {
	calls := 0
	ping := func(context.Context) error {
		calls++
		return nil
	}

	if err := WaitFor(context.Background(), ping, WaitOptions{Backoff: noDelay, Log: quietLog()}); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if calls != 1 {
		t.Fatalf("got %d pings, want 1", calls)
	}
}

func TestWaitFor_RetriesUntilAvailable(t *testing.T) {
	calls := 0
	ping := func(context.Context) error {
		calls++
		if calls <= 5 {
			return errors.New("connection refused")
		}
		return nil
	}

	if err := WaitFor(context.Background(), ping, WaitOptions{Backoff: noDelay, Log: quietLog()}); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if calls != 6 {
		t.Fatalf("got %d pings, want 6", calls)
	}
}

func TestWaitFor_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	down := errors.New("connection refused")
	ping := func(context.Context) error {
		calls++
		return down
	}

	err := WaitFor(context.Background(), ping, WaitOptions{Attempts: 3, Backoff: noDelay, Log: quietLog()})
	if !errors.Is(err, down) {
		t.Fatalf("got %v, want wrapped ping error", err)
	}

	if calls != 3 {
		t.Fatalf("got %d pings, want 3", calls)
	}
}

func TestWaitFor_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ping := func(context.Context) error {
		cancel()
		return errors.New("connection refused")
	}

	err := WaitFor(ctx, ping, WaitOptions{Backoff: func(int) time.Duration { return time.Hour }, Log: quietLog()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		min     time.Duration
	}{
		{attempt: 0, min: 1 * time.Second},
		{attempt: 1, min: 2 * time.Second},
		{attempt: 2, min: 4 * time.Second},
		{attempt: 20, min: 30 * time.Second},
	}

	for _, tt := range tests {
		got := ExponentialBackoff(tt.attempt)
		if got < tt.min || got >= tt.min+250*time.Millisecond {
			t.Fatalf("attempt %d: got %v, want in [%v, %v)", tt.attempt, got, tt.min, tt.min+250*time.Millisecond)
		}
	}
}
