//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"companion-hub/domain"
	"companion-hub/domain/command"
	"companion-hub/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives routed envelopes.
// Consume must return before ctx expires.
type EventSink interface {
	Consume(ctx context.Context, e event.Envelope) error
}

// Connection is a live transport link owned by a single session.
type Connection interface {
	EventSink
	ID() domain.ConnID
	Close() error
}

type IRegistry interface {
	Register(identity domain.Identity, user domain.User, conn Connection) (event.UserInfo, Connection)
	Unregister(id domain.ConnID) (event.UserInfo, bool)
	Lookup(id domain.ConnID) (event.UserInfo, bool)
	ListLive() []Connection
	Count() int
}

type IHistoryStore interface {
	AppendMessage(sender, content string) domain.Message
	AllMessages() []domain.Message
	Message(seq uint64) (domain.Message, bool)
	CreateEvent(draft domain.EventDraft, createdBy string) domain.Event
	ToggleRSVP(eventID int, attendee string) (domain.Event, error)
	AllEvents() []domain.Event
}

// IMessageIndex answers search_messages with sequence numbers in relevance order.
type IMessageIndex interface {
	Index(msg domain.Message) error
	Search(ctx context.Context, query string, limit int) ([]uint64, error)
}

// IJournal persists broadcast state changes.
type IJournal interface {
	StoreMessage(message domain.Message) error
	StoreEvent(evt domain.Event) error
}

// IEngine applies one command and returns what must be delivered, in order.
type IEngine interface {
	Apply(ctx context.Context, cmd command.Command) []event.Envelope
}

type IOrchestrator interface {
	Connect(ctx context.Context, identity domain.Identity, user domain.User, conn Connection) (event.UserInfo, error)
	Disconnect(ctx context.Context, id domain.ConnID)
	Dispatch(ctx context.Context, cmd command.Command) error
	Start(ctx context.Context) error
	Stop()
}
