package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithTokens(t *testing.T) {
	req := require.New(t)

	// Given no configured identity
	config := withTokens(Config{})

	// Then both tokens are generated once and kept as they are
	req.NotEmpty(config.UserID)
	req.NotEmpty(config.SessionID)
	req.NotEqual(config.UserID, config.SessionID)
	req.Equal(config, withTokens(config))

	// And configured tokens are never replaced
	req.Equal(Config{UserID: "u", SessionID: "s"}, withTokens(Config{UserID: "u", SessionID: "s"}))
}

func TestBackoff(t *testing.T) {
	req := require.New(t)
	req.Equal(time.Second, backoff(1, time.Second, 10*time.Second))
	req.Equal(2*time.Second, backoff(2, time.Second, 10*time.Second))
	req.Equal(8*time.Second, backoff(4, time.Second, 10*time.Second))
	req.Equal(10*time.Second, backoff(9, time.Second, 10*time.Second))
}

func TestRedial(t *testing.T) {
	config := Config{MaxReconnectTries: 3, ReconnectDelay: time.Millisecond, MaxReconnectDelay: 2 * time.Millisecond}
	refused := errors.New("connection refused")

	t.Run("succeeds after failures", func(t *testing.T) {
		req := require.New(t)
		calls, retries := 0, 0
		err := redial(context.Background(), config, func(context.Context) error {
			calls++
			if calls < 3 {
				return refused
			}
			return nil
		}, func(int, time.Duration, error) { retries++ })

		req.NoError(err)
		req.Equal(3, calls)
		req.Equal(2, retries)
	})

	t.Run("gives up after the last try", func(t *testing.T) {
		req := require.New(t)
		calls := 0
		err := redial(context.Background(), config, func(context.Context) error {
			calls++
			return refused
		}, func(int, time.Duration, error) {})

		req.ErrorIs(err, refused)
		req.Equal(3, calls)
	})

	t.Run("disabled without tries", func(t *testing.T) {
		req := require.New(t)
		err := redial(context.Background(), Config{}, func(context.Context) error {
			req.Fail("dial while disabled")
			return nil
		}, func(int, time.Duration, error) {})

		req.ErrorIs(err, errReconnectDisabled)
	})

	t.Run("stops when cancelled", func(t *testing.T) {
		req := require.New(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := redial(ctx, config, func(context.Context) error {
			req.Fail("dial after cancel")
			return nil
		}, func(int, time.Duration, error) {})

		req.ErrorIs(err, context.Canceled)
	})
}
