package sink

import (
	"companion-hub/contract"
	"companion-hub/domain/event"
	"context"
	"log/slog"
)

// JournalSink persists accepted state changes.
type JournalSink struct {
	journal contract.IJournal
	log     *slog.Logger
}

func NewJournalSink(journal contract.IJournal, log *slog.Logger) JournalSink {
	return JournalSink{journal: journal, log: log}
}

func (j JournalSink) Consume(_ context.Context, e event.Envelope) error {
	switch evt := e.Outbound.(type) {
	case event.NewMessage:
		return j.journal.StoreMessage(evt.Message)
	case event.NewEvent:
		return j.journal.StoreEvent(evt.Event)
	case event.EventUpdated:
		return j.journal.StoreEvent(evt.Event)
	default:
		return nil
	}
}
