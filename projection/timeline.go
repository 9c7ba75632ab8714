// Package projection builds a local view of the hub from observed frames.
// Handles ordering, deduplication, and projections.
// Does not send requests or render anything.
package projection

import (
	"companion-hub/client"
	"companion-hub/domain"
	"companion-hub/domain/event"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Timeline holds the chat history, the event board and the presence count
// as last seen by one client.
type Timeline struct {
	mu       sync.Mutex
	messages []domain.Message
	events   map[int]event.EventView
	online   int
}

func NewTimeline() *Timeline {
	return &Timeline{events: make(map[int]event.EventView)}
}

// Consume folds one frame into the view. Snapshots replace what was known,
// so a message seen both live and in a later history is kept once.
func (t *Timeline) Consume(f client.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch f.Event {
	case event.MessageHistoryName:
		var messages []domain.Message
		if err := f.Decode(&messages); err != nil {
			return fmt.Errorf("%s: %w", f.Event, err)
		}
		t.messages = messages
	case event.NewMessageName:
		var m domain.Message
		if err := f.Decode(&m); err != nil {
			return fmt.Errorf("%s: %w", f.Event, err)
		}
		t.messages = append(t.messages, m)
	case event.EventHistoryName:
		var events []event.EventView
		if err := f.Decode(&events); err != nil {
			return fmt.Errorf("%s: %w", f.Event, err)
		}
		t.events = lo.KeyBy(events, func(e event.EventView) int { return e.ID })
	case event.NewEventName, event.EventUpdatedName:
		var e event.EventView
		if err := f.Decode(&e); err != nil {
			return fmt.Errorf("%s: %w", f.Event, err)
		}
		t.events[e.ID] = e
	case event.UserCountName:
		var count event.UserCount
		if err := f.Decode(&count); err != nil {
			return fmt.Errorf("%s: %w", f.Event, err)
		}
		t.online = count.Count
	}
	return nil
}

func (t *Timeline) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.messages)
}

// Events returns the board ordered by id.
func (t *Timeline) Events() []event.EventView {
	t.mu.Lock()
	defer t.mu.Unlock()
	events := lo.Values(t.events)
	slices.SortFunc(events, func(a, b event.EventView) int { return a.ID - b.ID })
	return events
}

func (t *Timeline) Online() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online
}
