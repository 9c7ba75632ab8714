package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var errReconnectDisabled = errors.New("reconnect is disabled")

// withTokens fills in a missing user or session id so that every
// reconnection resumes the same session on the hub.
func withTokens(config Config) Config {
	if config.UserID == "" {
		config.UserID = uuid.NewString()
	}
	if config.SessionID == "" {
		config.SessionID = uuid.NewString()
	}
	return config
}

// backoff doubles the delay on each retry, capped at limit.
func backoff(retry int, base, limit time.Duration) time.Duration {
	delay := base
	for i := 1; i < retry && delay < limit; i++ {
		delay *= 2
	}
	return min(delay, limit)
}

// redial calls dial until it succeeds, the tries run out or ctx is done.
// onRetry is told about each failed attempt and the wait before the next one.
func redial(ctx context.Context, config Config, dial func(context.Context) error,
	onRetry func(retry int, wait time.Duration, err error)) error {
	if config.MaxReconnectTries <= 0 {
		return errReconnectDisabled
	}
	var err error
	for retry := 1; retry <= config.MaxReconnectTries; retry++ {
		wait := backoff(retry, config.ReconnectDelay, config.MaxReconnectDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if err = dial(ctx); err == nil {
			return nil
		}
		onRetry(retry, wait, err)
	}
	return err
}
