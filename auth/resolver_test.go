package auth

import (
	"companion-hub/domain"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestResolver_KeepsPresentedTokens(t *testing.T) {
	req := require.New(t)
	resolver := NewResolver(logs.GetLoggerFromLevel(slog.LevelDebug))

	// When a client presents both tokens
	identity, user := resolver.Resolve("abcdefgh-1234", "session-1")

	// Then they are trusted as-is
	req.Equal("abcdefgh-1234", identity.UserID)
	req.Equal("session-1", identity.SessionID)
	req.Equal("User-abcdefgh", user.Name)
}

func TestResolver_GeneratesMissingTokens(t *testing.T) {
	req := require.New(t)
	resolver := NewResolver(logs.GetLoggerFromLevel(slog.LevelDebug))

	// When no token is presented
	identity, user := resolver.Resolve("", "  ")

	// Then fresh UUIDs are assigned
	_, err := uuid.Parse(identity.UserID)
	req.NoError(err)
	_, err = uuid.Parse(identity.SessionID)
	req.NoError(err)
	req.NotEqual(identity.UserID, identity.SessionID)
	req.Equal("User-"+identity.UserID[:8], user.Name)
}

func TestResolver_ReplacesUnusableToken(t *testing.T) {
	req := require.New(t)
	resolver := NewResolver(logs.GetLoggerFromLevel(slog.LevelDebug))

	// Given a user token far too long and a valid session token
	identity, _ := resolver.Resolve(strings.Repeat("x", 500), "session-1")

	// Then only the unusable token is replaced
	_, err := uuid.Parse(identity.UserID)
	req.NoError(err)
	req.Equal("session-1", identity.SessionID)
}

func TestResolver_UserIsStable(t *testing.T) {
	req := require.New(t)
	resolver := NewResolver(logs.GetLoggerFromLevel(slog.LevelDebug))

	// Given many concurrent connections for the same user on different sessions
	var wg sync.WaitGroup
	users := make([]domain.User, 50)
	for i := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, users[i] = resolver.Resolve("same-user", "")
		}()
	}
	wg.Wait()

	// Then every connection is handed the same User
	for _, user := range users {
		req.Equal(domain.User{ID: "same-user", Name: "User-same-use"}, user)
	}
}
