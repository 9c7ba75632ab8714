// Package storage holds the in-memory source of truth for snapshots.
package storage

import (
	"companion-hub/contract"
	"companion-hub/domain"
	"companion-hub/errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

var _ contract.IHistoryStore = (*HistoryStore)(nil)

// HistoryStore is an append-only message log plus a mutable event collection.
// Every read returns copies so callers never share memory with the store.
type HistoryStore struct {
	mu       sync.RWMutex
	messages []domain.Message
	events   []*domain.Event
	byID     map[int]*domain.Event
	nextID   int
	now      func() time.Time
}

func NewHistoryStore() *HistoryStore {
	return NewHistoryStoreWithClock(time.Now)
}

func NewHistoryStoreWithClock(now func() time.Time) *HistoryStore {
	return &HistoryStore{
		messages: []domain.Message{},
		byID:     make(map[int]*domain.Event),
		nextID:   1,
		now:      now,
	}
}

// AppendMessage stamps and appends a message, returning the stored record.
func (h *HistoryStore) AppendMessage(sender, content string) domain.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	msg := domain.NewMessage(uint64(len(h.messages)+1), sender, content, h.now())
	h.messages = append(h.messages, msg)
	return msg
}

// AllMessages returns the full history, oldest first. Never nil.
func (h *HistoryStore) AllMessages() []domain.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.messages)
}

// Message returns the message at the given 1-based sequence number.
func (h *HistoryStore) Message(seq uint64) (domain.Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if seq == 0 || seq > uint64(len(h.messages)) {
		return domain.Message{}, false
	}
	return h.messages[seq-1], true
}

func (h *HistoryStore) CreateEvent(draft domain.EventDraft, createdBy string) domain.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	evt := domain.NewEvent(h.nextID, draft, createdBy)
	h.nextID++
	h.events = append(h.events, &evt)
	h.byID[evt.ID] = &evt
	return evt.Clone()
}

// ToggleRSVP flips attendee's membership and returns the updated event.
func (h *HistoryStore) ToggleRSVP(eventID int, attendee string) (domain.Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	evt, ok := h.byID[eventID]
	if !ok {
		return domain.Event{}, fmt.Errorf("%w: event %d", errors.ErrNotFound, eventID)
	}
	evt.ToggleRSVP(attendee)
	return evt.Clone(), nil
}

// AllEvents returns deep copies in creation order. Never nil.
func (h *HistoryStore) AllEvents() []domain.Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Map(h.events, func(e *domain.Event, _ int) domain.Event {
		return e.Clone()
	})
}

// Restore replaces the whole state, typically with what a journal replayed.
// Messages are renumbered in order and the next event id follows the highest restored one.
func (h *HistoryStore) Restore(messages []domain.Message, events []domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = make([]domain.Message, 0, len(messages))
	for i, m := range messages {
		m.Seq = uint64(i + 1)
		h.messages = append(h.messages, m)
	}
	h.events = nil
	h.byID = make(map[int]*domain.Event, len(events))
	h.nextID = 1
	for _, e := range events {
		evt := e.Clone()
		h.events = append(h.events, &evt)
		h.byID[evt.ID] = &evt
		h.nextID = max(h.nextID, evt.ID+1)
	}
}

func (h *HistoryStore) Stats() (messages, events int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages), len(h.events)
}
