// Package event defines what the engine emits.
// Outbound variants are delivered to clients; Event carries technical telemetry.
package event

import (
	"companion-hub/domain"
	"time"
)

type Name string

const (
	UserConnectedName    Name = "user_connected"
	UserDisconnectedName Name = "user_disconnected"
	UserCountName        Name = "user_count"
	MessageHistoryName   Name = "message_history"
	NewMessageName       Name = "new_message"
	EventHistoryName     Name = "event_history"
	NewEventName         Name = "new_event"
	EventUpdatedName     Name = "event_updated"
	SearchResultsName    Name = "search_results"
	ErrorName            Name = "error"
)

// Outbound is a typed server to client event.
type Outbound interface {
	Name() Name
	Payload() any
}

// UserInfo is the presence payload shared by join and leave notifications.
type UserInfo struct {
	ID          string `json:"id"`
	SessionID   string `json:"session_id"`
	Name        string `json:"name"`
	ConnectedAt string `json:"connected_at"`
}

type UserConnected struct {
	User UserInfo `json:"user"`
}

func (UserConnected) Name() Name     { return UserConnectedName }
func (u UserConnected) Payload() any { return u }

type UserDisconnected struct {
	User UserInfo `json:"user"`
}

func (UserDisconnected) Name() Name     { return UserDisconnectedName }
func (u UserDisconnected) Payload() any { return u }

type UserCount struct {
	Count int `json:"count"`
}

func (UserCount) Name() Name     { return UserCountName }
func (u UserCount) Payload() any { return u }

type MessageHistory struct {
	Messages []domain.Message
}

func (MessageHistory) Name() Name     { return MessageHistoryName }
func (m MessageHistory) Payload() any { return nonNil(m.Messages) }

type NewMessage struct {
	Message domain.Message
}

func (NewMessage) Name() Name     { return NewMessageName }
func (m NewMessage) Payload() any { return m.Message }

type EventHistory struct {
	Events []domain.Event
}

func (EventHistory) Name() Name { return EventHistoryName }
func (e EventHistory) Payload() any {
	views := make([]EventView, 0, len(e.Events))
	for _, evt := range e.Events {
		views = append(views, ViewOf(evt))
	}
	return views
}

// EventView is an event as clients receive it. RSVPs keeps the attendee
// user ids while Attendees carries their display names.
type EventView struct {
	domain.Event
	Attendees []string `json:"attendees"`
}

func ViewOf(e domain.Event) EventView {
	return EventView{Event: e, Attendees: e.Attendees()}
}

type NewEvent struct {
	Event domain.Event
}

func (NewEvent) Name() Name     { return NewEventName }
func (e NewEvent) Payload() any { return ViewOf(e.Event) }

type EventUpdated struct {
	Event domain.Event
}

func (EventUpdated) Name() Name     { return EventUpdatedName }
func (e EventUpdated) Payload() any { return ViewOf(e.Event) }

type SearchResults struct {
	Query    string           `json:"query"`
	Messages []domain.Message `json:"messages"`
}

func (SearchResults) Name() Name { return SearchResultsName }
func (s SearchResults) Payload() any {
	s.Messages = nonNil(s.Messages)
	return s
}

type Error struct {
	Message string `json:"message"`
}

func (Error) Name() Name     { return ErrorName }
func (e Error) Payload() any { return e }

// Envelope routes an Outbound event.
// An empty Target means broadcast to every live connection except Exclude.
type Envelope struct {
	Target     domain.ConnID
	Exclude    domain.ConnID
	Outbound   Outbound
	AcceptedAt time.Time
}

func Broadcast(o Outbound) Envelope {
	return Envelope{Outbound: o, AcceptedAt: time.Now().UTC()}
}

func To(target domain.ConnID, o Outbound) Envelope {
	return Envelope{Target: target, Outbound: o, AcceptedAt: time.Now().UTC()}
}

func (e Envelope) IsBroadcast() bool {
	return e.Target == ""
}

// DeliversTo reports whether the connection is a recipient of the envelope.
func (e Envelope) DeliversTo(id domain.ConnID) bool {
	if e.Target != "" {
		return e.Target == id
	}
	return e.Exclude == "" || e.Exclude != id
}

// nonNil makes empty snapshots encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Frame is the outbound wire envelope {"event": name, "data": payload}.
type Frame struct {
	Event Name `json:"event"`
	Data  any  `json:"data"`
}

func ToFrame(o Outbound) Frame {
	return Frame{Event: o.Name(), Data: o.Payload()}
}
