// Package command defines the typed requests a client can send.
// Every request is validated at the boundary before it reaches the engine.
package command

import (
	"companion-hub/domain"
	"companion-hub/domain/event"
	"strings"
)

type Kind string

const (
	GetMessagesKind    Kind = "get_messages"
	GetEventsKind      Kind = "get_events"
	SendMessageKind    Kind = "send_message"
	CreateEventKind    Kind = "create_event"
	RSVPEventKind      Kind = "rsvp_event"
	SearchMessagesKind Kind = "search_messages"
	InvalidKind        Kind = "invalid"
	JoinedKind         Kind = "joined"
	LeftKind           Kind = "left"
)

// Request is implemented by every inbound variant.
type Request interface {
	Kind() Kind
}

type GetMessages struct{}

func (GetMessages) Kind() Kind { return GetMessagesKind }

type GetEvents struct{}

func (GetEvents) Kind() Kind { return GetEventsKind }

// SendMessage carries a chat line. A nil Content is malformed,
// a blank one is silently dropped.
type SendMessage struct {
	Content *string `json:"content" validate:"required"`
}

func (SendMessage) Kind() Kind { return SendMessageKind }

func (s SendMessage) IsBlank() bool {
	return s.Content == nil || strings.TrimSpace(*s.Content) == ""
}

type CreateEvent struct {
	Title       string `json:"title" validate:"required,max=200"`
	Date        string `json:"date" validate:"required,max=64"`
	Time        string `json:"time" validate:"required,max=64"`
	Location    string `json:"location" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
}

func (CreateEvent) Kind() Kind { return CreateEventKind }

func (c CreateEvent) normalize() CreateEvent {
	return CreateEvent{
		Title:       strings.TrimSpace(c.Title),
		Date:        strings.TrimSpace(c.Date),
		Time:        strings.TrimSpace(c.Time),
		Location:    strings.TrimSpace(c.Location),
		Description: strings.TrimSpace(c.Description),
	}
}

func (c CreateEvent) Draft() domain.EventDraft {
	return domain.EventDraft{
		Title:       c.Title,
		Date:        c.Date,
		Time:        c.Time,
		Location:    c.Location,
		Description: c.Description,
	}
}

type RSVPEvent struct {
	EventID int `json:"event_id" validate:"required"`
}

func (RSVPEvent) Kind() Kind { return RSVPEventKind }

type SearchMessages struct {
	Query string `json:"query" validate:"required,max=256"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

func (SearchMessages) Kind() Kind { return SearchMessagesKind }

// Invalid stands for a frame that could not be turned into a request.
// It still travels through the sequencer so the error reply keeps its place.
type Invalid struct {
	Err error
}

func (Invalid) Kind() Kind { return InvalidKind }

// Joined and Left are emitted by the server itself when the registry
// changes. They never come from the wire.
type Joined struct {
	User event.UserInfo
}

func (Joined) Kind() Kind { return JoinedKind }

type Left struct {
	User event.UserInfo
}

func (Left) Kind() Kind { return LeftKind }

// Command binds a request to the connection and identity it came from.
type Command struct {
	Origin   domain.ConnID
	Identity domain.Identity
	User     domain.User
	Request  Request
}

// Sender is the user the command is attributed to. Commands built without a
// resolved user fall back to one derived from the identity.
func (c Command) Sender() domain.User {
	if c.User.ID == "" {
		return domain.NewUser(c.Identity.UserID)
	}
	return c.User
}
