package main

import (
	"companion-hub/repositories"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to the journal")
	limit := flag.Int("limit", 50, "Number of most recent messages to show, 0 for all")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer func() { _ = db.Close() }()

	journal := repositories.NewJournalRepository(db, logs.GetLoggerFromLevel(slog.LevelError))
	if err := dump(os.Stdout, journal, *limit); err != nil {
		log.Fatal(err)
	}
}

func dump(out io.Writer, journal repositories.JournalRepository, limit int) error {
	_, events, err := journal.Load()
	if err != nil {
		return err
	}
	messages, err := journal.Tail(limit)
	if err != nil {
		return err
	}

	table := newTable(out, "Seq", "At", "Sender", "Content")
	// Tail is newest first, the table reads oldest first
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		table.Append([]string{strconv.FormatUint(m.Seq, 10), m.Timestamp, m.Sender, m.Content})
	}
	table.Render()
	fmt.Fprintln(out)

	table = newTable(out, "ID", "Title", "Date", "Time", "Location", "By", "RSVP")
	for _, e := range events {
		table.Append([]string{strconv.Itoa(e.ID), e.Title, e.Date, e.Time, e.Location, e.CreatedBy,
			strings.Join(e.Attendees(), ", ")})
	}
	table.Render()
	return nil
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

// openDB opens the journal read-only, even while the hub holds the lock.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
