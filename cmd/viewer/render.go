package main

import (
	"companion-hub/client"
	"companion-hub/domain"
	"companion-hub/domain/event"
	"companion-hub/projection"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

type renderer struct {
	mu       sync.Mutex
	out      io.Writer
	colours  bool
	timeline *projection.Timeline
}

func newRenderer(out io.Writer, colours bool) *renderer {
	return &renderer{out: out, colours: colours, timeline: projection.NewTimeline()}
}

func (r *renderer) paint(s string, opts ...color.Color) string {
	if !r.colours {
		return s
	}
	return color.New(opts...).Render(s)
}

func (r *renderer) info(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, r.paint(s, color.FgGray))
}

func (r *renderer) failure(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, r.paint("! "+s, color.FgRed))
}

func (r *renderer) render(f client.Frame) {
	if err := r.timeline.Consume(f); err != nil {
		r.failure(err.Error())
		return
	}
	switch f.Event {
	case event.NewMessageName:
		var m domain.Message
		if f.Decode(&m) == nil {
			r.message(m)
		}
	case event.MessageHistoryName:
		var messages []domain.Message
		if f.Decode(&messages) == nil {
			for _, m := range messages {
				r.message(m)
			}
		}
	case event.SearchResultsName:
		var results struct {
			Query    string           `json:"query"`
			Messages []domain.Message `json:"messages"`
		}
		if f.Decode(&results) == nil {
			r.info(fmt.Sprintf("%d result(s) for %q", len(results.Messages), results.Query))
			for _, m := range results.Messages {
				r.message(m)
			}
		}
	case event.EventHistoryName, event.NewEventName, event.EventUpdatedName:
		r.board(r.timeline.Events())
	case event.UserConnectedName, event.UserDisconnectedName:
		var presence struct {
			User event.UserInfo `json:"user"`
		}
		if f.Decode(&presence) == nil {
			verb := "joined"
			if f.Event == event.UserDisconnectedName {
				verb = "left"
			}
			r.info(fmt.Sprintf("%s %s", presence.User.Name, verb))
		}
	case event.UserCountName:
		r.info(fmt.Sprintf("%d online", r.timeline.Online()))
	case event.ErrorName:
		var e event.Error
		if f.Decode(&e) == nil {
			r.failure(e.Message)
		}
	}
}

func (r *renderer) message(m domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %s %s\n",
		r.paint(m.Timestamp, color.FgGray),
		r.paint(m.Sender+":", color.FgCyan, color.OpBold),
		m.Content)
}

func (r *renderer) board(events []event.EventView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"ID", "Title", "Date", "Time", "Location", "By", "RSVP"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, e := range events {
		table.Append([]string{
			strconv.Itoa(e.ID), e.Title, e.Date, e.Time, e.Location, e.CreatedBy,
			strings.Join(e.Attendees, ", "),
		})
	}
	table.Render()
}
