package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvent_ToggleRSVP_IsIdempotentPerPair(t *testing.T) {
	req := require.New(t)
	evt := NewEvent(1, EventDraft{Title: "Coffee"}, "User-alice")

	// When the same attendee toggles once
	attending := evt.ToggleRSVP("User-bob")

	// Then the attendee is in the set
	req.True(attending)
	req.Equal([]string{"User-bob"}, evt.RSVPs)

	// When the attendee toggles a second time
	attending = evt.ToggleRSVP("User-bob")

	// Then membership is back to the original one
	req.False(attending)
	req.Empty(evt.RSVPs)
	req.NotNil(evt.RSVPs)
}

func TestEvent_ToggleRSVP_KeepsOtherAttendees(t *testing.T) {
	req := require.New(t)
	evt := NewEvent(1, EventDraft{Title: "Yoga"}, "User-alice")
	evt.ToggleRSVP("User-a")
	evt.ToggleRSVP("User-b")
	evt.ToggleRSVP("User-c")

	evt.ToggleRSVP("User-b")

	req.ElementsMatch([]string{"User-a", "User-c"}, evt.RSVPs)
	req.True(evt.IsAttending("User-c"))
	req.False(evt.IsAttending("User-b"))
}

func TestEvent_Clone_DoesNotShareRSVPs(t *testing.T) {
	req := require.New(t)
	evt := NewEvent(3, EventDraft{Title: "Walk"}, "User-alice")
	evt.ToggleRSVP("User-a")

	clone := evt.Clone()
	evt.ToggleRSVP("User-b")

	req.Equal([]string{"User-a"}, clone.RSVPs)
	req.Len(evt.RSVPs, 2)
}

func TestDisplayName(t *testing.T) {
	req := require.New(t)
	req.Equal("User-0123abcd", DisplayName("0123abcd-ffff-4444"))
	req.Equal("User-abc", DisplayName("abc"))
	req.Equal("User-", DisplayName(""))
}
