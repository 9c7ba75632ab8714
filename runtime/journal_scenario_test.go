package runtime_test

import (
	"companion-hub/domain"
	"companion-hub/domain/command"
	"companion-hub/domain/event"
	"companion-hub/repositories"
	"companion-hub/runtime"
	"companion-hub/runtime/workers"
	"companion-hub/sink"
	"companion-hub/storage"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// startJournaled runs a hub wired like the server binary: search index in the
// engine, journal as permanent sink, warm started from whatever the journal holds.
func startJournaled(t *testing.T, db *badger.DB) (*runtime.Orchestrator, func()) {
	log := logs.GetLoggerFromLevel(slog.LevelInfo)
	telemetry := make(chan event.Event, 100)
	sup := workers.NewSupervisor(log, telemetry, 10*time.Millisecond)
	orchestrator := runtime.NewOrchestrator(log, sup, runtime.NewRegistry(), storage.NewHistoryStore(), telemetry, runtime.Config{
		BufferSize:     64,
		SinkTimeout:    time.Second,
		MetricInterval: time.Hour,
		SearchLimit:    10,
	})

	index, err := repositories.NewInMemorySearchIndex(log)
	require.NoError(t, err)
	journal := repositories.NewJournalRepository(db, log)
	orchestrator.WithIndex(index)
	orchestrator.Add(sink.NewJournalSink(journal, log))

	messages, events, err := journal.Load()
	require.NoError(t, err)
	require.NoError(t, orchestrator.Restore(messages, events))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, orchestrator.Start(ctx))
	return orchestrator, func() {
		orchestrator.Stop()
		cancel()
		_ = index.Close()
	}
}

func Test_JournalScenario(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	alice := domain.Identity{UserID: "aaaaaaaa-1", SessionID: "s1"}

	// Given a first run where alice chats and books an event
	first, stop := startJournaled(t, db)
	conn := sink.NewConnectionSink("first", 64)
	_, err = first.Connect(ctx, alice, domain.NewUser(alice.UserID), conn)
	req.NoError(err)
	for _, content := range []string{"pizza tonight?", "bring drinks"} {
		req.NoError(first.Dispatch(ctx, command.Command{Origin: conn.ID(), Identity: alice,
			Request: command.SendMessage{Content: &content}}))
	}
	req.NoError(first.Dispatch(ctx, command.Command{Origin: conn.ID(), Identity: alice,
		Request: command.CreateEvent{Title: "Pizza", Date: "Fri", Time: "20:00", Location: "Home", Description: "x"}}))
	req.NoError(first.Dispatch(ctx, command.Command{Origin: conn.ID(), Identity: alice,
		Request: command.RSVPEvent{EventID: 1}}))
	// Permanent sinks are fed before connections, so the journal is up to date
	next(t, conn, event.EventUpdatedName)
	stop()

	// When the hub restarts on the same journal
	second, stop := startJournaled(t, db)
	defer stop()
	conn = sink.NewConnectionSink("second", 64)
	_, err = second.Connect(ctx, alice, domain.NewUser(alice.UserID), conn)
	req.NoError(err)
	for _, r := range []command.Request{
		command.GetMessages{},
		command.GetEvents{},
		command.SearchMessages{Query: "pizza"},
		command.CreateEvent{Title: "Movie", Date: "Sat", Time: "21:00", Location: "Cinema", Description: "y"},
	} {
		req.NoError(second.Dispatch(ctx, command.Command{Origin: conn.ID(), Identity: alice, Request: r}))
	}

	// Then history, board and index are back
	history := next(t, conn, event.MessageHistoryName).Outbound.(event.MessageHistory)
	req.Len(history.Messages, 2)
	req.Equal("pizza tonight?", history.Messages[0].Content)

	board := next(t, conn, event.EventHistoryName).Outbound.(event.EventHistory)
	req.Len(board.Events, 1)
	req.Equal([]string{alice.UserID}, board.Events[0].RSVPs)

	results := next(t, conn, event.SearchResultsName).Outbound.(event.SearchResults)
	req.Len(results.Messages, 1)
	req.Equal("pizza tonight?", results.Messages[0].Content)

	// And ids keep growing after the restored ones
	created := next(t, conn, event.NewEventName).Outbound.(event.NewEvent)
	req.Equal(2, created.Event.ID)
}
