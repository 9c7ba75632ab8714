package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"malformed reason", Malformed("content is required"), "content is required"},
		{"wrapped malformed", fmt.Errorf("decode: %w", Malformed("title is required")), "title is required"},
		{"not found", fmt.Errorf("rsvp 42: %w", ErrNotFound), "Event not found"},
		{"bare malformed", ErrMalformedRequest, "Malformed request"},
		{"session closed", ErrSessionClosed, "Session closed"},
		{"internal", fmt.Errorf("badger: disk full"), "An error occurred"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ClientMessage(tc.err))
		})
	}
}

func TestMalformed_UnwrapsToSentinel(t *testing.T) {
	req := require.New(t)
	req.ErrorIs(Malformed("x"), ErrMalformedRequest)
}
