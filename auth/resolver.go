// Package auth resolves the identity a client connects with.
// Tokens are opaque and trusted: this is a trust boundary, not a security control.
package auth

import (
	"companion-hub/domain"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Tokens as presented on the query string
type tokens struct {
	UserID    string `validate:"omitempty,max=128,printascii"`
	SessionID string `validate:"omitempty,max=128,printascii"`
}

type Resolver struct {
	mu       sync.Mutex
	log      *slog.Logger
	users    map[string]domain.User
	newToken func() string
}

func NewResolver(log *slog.Logger) *Resolver {
	return &Resolver{
		log:      log,
		users:    make(map[string]domain.User),
		newToken: func() string { return uuid.NewString() },
	}
}

// Resolve returns the identity pair for the presented tokens.
// A missing or unusable token is replaced by a fresh UUID.
// The first User created for a user_id is kept for the process lifetime.
func (r *Resolver) Resolve(userID, sessionID string) (domain.Identity, domain.User) {
	t := tokens{UserID: strings.TrimSpace(userID), SessionID: strings.TrimSpace(sessionID)}
	if err := validate.Struct(t); err != nil {
		r.log.Debug("Unusable token replaced", "error", err)
		t = r.sanitize(t, err)
	}
	if t.UserID == "" {
		t.UserID = r.newToken()
	}
	if t.SessionID == "" {
		t.SessionID = r.newToken()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[t.UserID]
	if !ok {
		user = domain.NewUser(t.UserID)
		r.users[t.UserID] = user
	}
	return domain.Identity{UserID: t.UserID, SessionID: t.SessionID}, user
}

func (r *Resolver) sanitize(t tokens, err error) tokens {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return tokens{}
	}
	for _, fe := range fieldErrors {
		switch fe.StructField() {
		case "UserID":
			t.UserID = ""
		case "SessionID":
			t.SessionID = ""
		}
	}
	return t
}
