// Package domain contains core concepts of the synchronization engine.
// This file defines participants and the identity pair they connect with.
// No runtime, network, or UI logic should be added here.
package domain

const displayNamePrefix = "User-"

// Identity is the (user_id, session_id) pair presented by a client.
// Both tokens are opaque and trusted as-is.
type Identity struct {
	UserID    string
	SessionID string
}

// User is immutable once created for a given user_id.
type User struct {
	ID   string
	Name string
}

// DisplayName derives the readable name of a user from the first
// eight characters of its token.
func DisplayName(userID string) string {
	runes := []rune(userID)
	if len(runes) > 8 {
		runes = runes[:8]
	}
	return displayNamePrefix + string(runes)
}

func NewUser(userID string) User {
	return User{ID: userID, Name: DisplayName(userID)}
}
