package main

import (
	"bytes"
	"companion-hub/domain"
	"companion-hub/repositories"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer func() { _ = db.Close() }()
	journal := repositories.NewJournalRepository(db, logs.GetLoggerFromLevel(slog.LevelError))

	// Given three messages and one event in the journal
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		req.NoError(journal.StoreMessage(domain.NewMessage(uint64(i+1), "User-aaaaaaaa", content, at)))
	}
	req.NoError(journal.StoreEvent(domain.Event{ID: 1, Title: "Picnic", RSVPs: []string{"bbbbbbbb-2"}}))

	// When the last two messages are dumped
	var out bytes.Buffer
	req.NoError(dump(&out, journal, 2))

	// Then they are printed oldest first, with the board
	text := out.String()
	req.NotContains(text, "first")
	req.Less(strings.Index(text, "second"), strings.Index(text, "third"))
	req.Contains(text, "Picnic")
	req.Contains(text, "User-bbbbbbbb")
}
