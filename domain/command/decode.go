package command

import (
	"bytes"
	apperrors "companion-hub/errors"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so that errors match what the client sent
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode turns the name and raw payload of a frame into a validated Request.
// Every failure wraps errors.ErrMalformedRequest.
func Decode(name string, data json.RawMessage) (Request, error) {
	var req Request
	switch Kind(name) {
	case GetMessagesKind:
		req = GetMessages{}
	case GetEventsKind:
		req = GetEvents{}
	case SendMessageKind:
		var r SendMessage
		if err := unmarshal(data, &r); err != nil {
			return nil, err
		}
		req = r
	case CreateEventKind:
		var r CreateEvent
		if err := unmarshal(data, &r); err != nil {
			return nil, err
		}
		req = r.normalize()
	case RSVPEventKind:
		var r RSVPEvent
		if err := unmarshal(data, &r); err != nil {
			return nil, err
		}
		req = r
	case SearchMessagesKind:
		var r SearchMessages
		if err := unmarshal(data, &r); err != nil {
			return nil, err
		}
		r.Query = strings.TrimSpace(r.Query)
		req = r
	case "":
		return nil, apperrors.Malformed("event is required")
	default:
		return nil, apperrors.Malformed(fmt.Sprintf("unknown event %q", name))
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks the struct tags of a request.
func Validate(req Request) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if goerrors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		return apperrors.Malformed(reason(fieldErrors[0]))
	}
	return apperrors.Malformed(err.Error())
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "max":
		return fmt.Sprintf("%s is out of range", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func unmarshal(data json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		// Missing payloads are reported by the validator as missing fields
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return apperrors.Malformed("payload is invalid")
	}
	return nil
}

// UnmarshalJSON accepts both event_id and the eventId key sent by browser clients.
func (r *RSVPEvent) UnmarshalJSON(b []byte) error {
	var raw struct {
		EventID *int `json:"event_id"`
		Legacy  *int `json:"eventId"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch {
	case raw.EventID != nil:
		r.EventID = *raw.EventID
	case raw.Legacy != nil:
		r.EventID = *raw.Legacy
	}
	return nil
}

// Frame is the inbound wire envelope {"event": name, "data": payload}.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// DecodeFrame parses a raw text frame and decodes the request it carries.
func DecodeFrame(raw []byte) (Request, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, apperrors.Malformed("frame is invalid")
	}
	return Decode(f.Event, f.Data)
}
