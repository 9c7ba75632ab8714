package errors

import (
	goerrors "errors"
	"fmt"
)

var (
	ErrNotFound         = fmt.Errorf("not found")
	ErrMalformedRequest = fmt.Errorf("malformed request")
	ErrTransportFailure = fmt.Errorf("transport failure")
	ErrSessionClosed    = fmt.Errorf("session closed")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrInvalidPayload   = fmt.Errorf("invalid payload")
	ErrEmptyWords       = fmt.Errorf("no words have been found")
	ErrJournalDisabled  = fmt.Errorf("journal is disabled")
)

// MalformedError carries the user facing reason of a rejected request.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedRequest, e.Reason)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformedRequest
}

func Malformed(reason string) error {
	return &MalformedError{Reason: reason}
}

// ClientMessage maps an error to the text shown to the originating client.
// Internal failures are never leaked verbatim.
func ClientMessage(err error) string {
	var malformed *MalformedError
	switch {
	case err == nil:
		return ""
	case goerrors.As(err, &malformed):
		return malformed.Reason
	case goerrors.Is(err, ErrNotFound):
		return "Event not found"
	case goerrors.Is(err, ErrMalformedRequest):
		return "Malformed request"
	case goerrors.Is(err, ErrSessionClosed):
		return "Session closed"
	default:
		return "An error occurred"
	}
}
