// Package runtime wires the registry, the history store and the workers together.
// The engine is the only place where requests become state changes.
package runtime

import (
	"companion-hub/contract"
	"companion-hub/domain"
	"companion-hub/domain/command"
	"companion-hub/domain/event"
	"companion-hub/errors"
	"companion-hub/moderation"
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

var _ contract.IEngine = (*Engine)(nil)

// Engine must be driven by a single sequencer so envelopes leave in acceptance order.
type Engine struct {
	log         *slog.Logger
	store       contract.IHistoryStore
	registry    contract.IRegistry
	index       contract.IMessageIndex
	moderator   *moderation.Moderator
	searchLimit int
}

func NewEngine(log *slog.Logger, store contract.IHistoryStore, registry contract.IRegistry) *Engine {
	return &Engine{log: log, store: store, registry: registry, searchLimit: 20}
}

func (e *Engine) WithModerator(m *moderation.Moderator) *Engine {
	e.moderator = m
	return e
}

func (e *Engine) WithIndex(index contract.IMessageIndex, searchLimit int) *Engine {
	e.index = index
	if searchLimit > 0 {
		e.searchLimit = searchLimit
	}
	return e
}

func (e *Engine) Apply(ctx context.Context, cmd command.Command) []event.Envelope {
	sender := cmd.Sender()

	switch req := cmd.Request.(type) {
	case command.Joined:
		return e.presence(event.UserConnected{User: req.User})
	case command.Left:
		return e.presence(event.UserDisconnected{User: req.User})
	case command.GetMessages:
		return one(event.To(cmd.Origin, event.MessageHistory{Messages: e.store.AllMessages()}))
	case command.GetEvents:
		return one(event.To(cmd.Origin, event.EventHistory{Events: e.store.AllEvents()}))
	case command.SendMessage:
		if req.IsBlank() {
			e.log.Debug("Blank message dropped", "conn_id", cmd.Origin)
			return nil
		}
		return e.sendMessage(sender, *req.Content)
	case command.CreateEvent:
		evt := e.store.CreateEvent(req.Draft(), sender.Name)
		e.log.Info("New event created", "user", sender.Name, "event_id", evt.ID, "title", evt.Title)
		return one(event.Broadcast(event.NewEvent{Event: evt}))
	case command.RSVPEvent:
		evt, err := e.store.ToggleRSVP(req.EventID, sender.ID)
		if err != nil {
			e.log.Debug("RSVP rejected", "user", sender.Name, "event_id", req.EventID, "error", err)
			return e.reject(cmd.Origin, err)
		}
		e.log.Info("RSVP toggled", "user", sender.Name, "event_id", evt.ID, "attending", evt.IsAttending(sender.ID))
		return one(event.Broadcast(event.EventUpdated{Event: evt}))
	case command.SearchMessages:
		return e.search(ctx, cmd.Origin, req)
	case command.Invalid:
		return e.reject(cmd.Origin, req.Err)
	default:
		return e.reject(cmd.Origin, errors.Malformed(fmt.Sprintf("unknown event %q", cmd.Request.Kind())))
	}
}

// sendMessage moderates, stores and indexes a chat line before it is broadcast,
// so a search applied after it always sees it.
func (e *Engine) sendMessage(sender domain.User, content string) []event.Envelope {
	if e.moderator != nil {
		verdict := e.moderator.Inspect(content)
		if len(verdict.CensoredWords) > 0 {
			e.log.Info("Message moderated", "user", sender.Name, "lang", verdict.Lang,
				"censored", verdict.CensoredWords)
		}
		content = verdict.Content
	}
	msg := e.store.AppendMessage(sender.Name, content)
	if e.index != nil {
		if err := e.index.Index(msg); err != nil {
			e.log.Error("Failed to index message", "seq", msg.Seq, "error", err)
		}
	}
	e.log.Info("New message", "user", sender.Name, "seq", msg.Seq)
	return one(event.Broadcast(event.NewMessage{Message: msg}))
}

// presence announces a join or a leave followed by the new head count.
func (e *Engine) presence(o event.Outbound) []event.Envelope {
	return []event.Envelope{
		event.Broadcast(o),
		event.Broadcast(event.UserCount{Count: e.registry.Count()}),
	}
}

func (e *Engine) search(ctx context.Context, origin domain.ConnID, req command.SearchMessages) []event.Envelope {
	if e.index == nil {
		return e.reject(origin, errors.Malformed("search is disabled"))
	}
	limit := req.Limit
	if limit == 0 {
		limit = e.searchLimit
	}
	seqs, err := e.index.Search(ctx, req.Query, limit)
	if err != nil {
		e.log.Error("Search failed", "query", req.Query, "error", err)
		return e.reject(origin, err)
	}
	messages := lo.FilterMap(seqs, func(seq uint64, _ int) (domain.Message, bool) {
		return e.store.Message(seq)
	})
	return one(event.To(origin, event.SearchResults{Query: req.Query, Messages: messages}))
}

func (e *Engine) reject(origin domain.ConnID, err error) []event.Envelope {
	return one(event.To(origin, event.Error{Message: errors.ClientMessage(err)}))
}

func one(e event.Envelope) []event.Envelope {
	return []event.Envelope{e}
}
