package storage

import (
	"companion-hub/domain"
	"companion-hub/errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return func() time.Time { return at }
}

func draft(title string) domain.EventDraft {
	return domain.EventDraft{Title: title, Date: "2025-03-14", Time: "18:00", Location: "Hall", Description: "d"}
}

func TestHistoryStore_EmptySnapshotsAreNotNil(t *testing.T) {
	req := require.New(t)
	store := NewHistoryStore()

	req.NotNil(store.AllMessages())
	req.Empty(store.AllMessages())
	req.NotNil(store.AllEvents())
	req.Empty(store.AllEvents())
}

func TestHistoryStore_AppendMessage(t *testing.T) {
	req := require.New(t)
	store := NewHistoryStoreWithClock(fixedClock())

	// When two messages are appended
	first := store.AppendMessage("User-aaaaaaaa", "hi")
	second := store.AppendMessage("User-bbbbbbbb", "hello")

	// Then they are numbered and stamped in arrival order
	req.Equal(uint64(1), first.Seq)
	req.Equal(uint64(2), second.Seq)
	req.Equal("2025-03-14 09:26:53", first.Timestamp)
	req.Equal([]domain.Message{first, second}, store.AllMessages())

	got, ok := store.Message(2)
	req.True(ok)
	req.Equal("hello", got.Content)
	_, ok = store.Message(3)
	req.False(ok)
	_, ok = store.Message(0)
	req.False(ok)
}

func TestHistoryStore_ConcurrentAppendsKeepOneOrder(t *testing.T) {
	req := require.New(t)
	store := NewHistoryStore()
	n := 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.AppendMessage("User-x", fmt.Sprintf("m%d", i))
		}(i)
	}
	wg.Wait()

	// Then every message is present once with a gapless sequence
	messages := store.AllMessages()
	req.Len(messages, n)
	seen := make(map[string]bool)
	for i, m := range messages {
		req.Equal(uint64(i+1), m.Seq)
		req.False(seen[m.Content])
		seen[m.Content] = true
	}
}

func TestHistoryStore_ConcurrentCreateEventYieldsDistinctIDs(t *testing.T) {
	req := require.New(t)
	store := NewHistoryStore()
	n := 100

	ids := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- store.CreateEvent(draft("e"), "User-x").ID
		}()
	}
	wg.Wait()
	close(ids)

	unique := make(map[int]struct{})
	for id := range ids {
		req.GreaterOrEqual(id, 1)
		req.LessOrEqual(id, n)
		unique[id] = struct{}{}
	}
	req.Len(unique, n)
}

func TestHistoryStore_ToggleRSVP(t *testing.T) {
	req := require.New(t)
	store := NewHistoryStore()
	evt := store.CreateEvent(draft("Picnic"), "User-a")
	req.Equal(1, evt.ID)
	req.Empty(evt.RSVPs)

	// When the same identity toggles twice
	updated, err := store.ToggleRSVP(evt.ID, "User-b")
	req.NoError(err)
	req.Equal([]string{"User-b"}, updated.RSVPs)
	restored, err := store.ToggleRSVP(evt.ID, "User-b")
	req.NoError(err)

	// Then membership is back to the original
	req.Empty(restored.RSVPs)
}

func TestHistoryStore_ToggleRSVPUnknownEvent(t *testing.T) {
	req := require.New(t)
	store := NewHistoryStore()
	store.CreateEvent(draft("Picnic"), "User-a")

	_, err := store.ToggleRSVP(42, "User-b")

	req.ErrorIs(err, errors.ErrNotFound)
	req.Empty(store.AllEvents()[0].RSVPs)
}

func TestHistoryStore_ConcurrentTogglesLoseNothing(t *testing.T) {
	req := require.New(t)
	store := NewHistoryStore()
	evt := store.CreateEvent(draft("Picnic"), "User-a")
	n := 64

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.ToggleRSVP(evt.ID, fmt.Sprintf("User-%d", i))
			req.NoError(err)
		}(i)
	}
	wg.Wait()

	req.Len(store.AllEvents()[0].RSVPs, n)
}

func TestHistoryStore_SnapshotsAreCopies(t *testing.T) {
	req := require.New(t)
	store := NewHistoryStore()
	store.CreateEvent(draft("Picnic"), "User-a")
	_, err := store.ToggleRSVP(1, "User-b")
	req.NoError(err)

	// When a caller mutates its snapshot
	snapshot := store.AllEvents()
	snapshot[0].RSVPs[0] = "User-z"
	snapshot[0].Title = "changed"

	// Then the store is untouched
	again := store.AllEvents()
	req.Equal("User-b", again[0].RSVPs[0])
	req.Equal("Picnic", again[0].Title)
}

func TestHistoryStore_Restore(t *testing.T) {
	req := require.New(t)
	store := NewHistoryStoreWithClock(fixedClock())
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// Given a journal replay with a gap in event ids
	store.Restore(
		[]domain.Message{domain.NewMessage(7, "User-a", "old", at)},
		[]domain.Event{
			domain.NewEvent(1, draft("first"), "User-a"),
			domain.NewEvent(5, draft("fifth"), "User-a"),
		},
	)

	// Then sequences are renumbered and ids continue after the highest one
	req.Equal(uint64(1), store.AllMessages()[0].Seq)
	req.Equal(uint64(2), store.AppendMessage("User-b", "new").Seq)
	req.Equal(6, store.CreateEvent(draft("sixth"), "User-b").ID)
	messages, events := store.Stats()
	req.Equal(2, messages)
	req.Equal(3, events)
}
