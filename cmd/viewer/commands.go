package main

import (
	"companion-hub/client"
	"companion-hub/domain/command"
	"companion-hub/domain/search"
	"context"
	"errors"
	"strconv"
	"strings"
)

type action struct {
	quit bool
	send func(ctx context.Context, c *client.Client) error
}

var errUsage = errors.New("usage: /events | /event title|date|time|location|description | /rsvp <id> | /search <terms> [--limit n] | /quit")

// parseLine turns a typed line into a request. Plain text is a chat message.
func parseLine(line string) (action, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return action{}, nil
	}
	if !strings.HasPrefix(line, "/") {
		return action{send: func(ctx context.Context, c *client.Client) error {
			return c.SendMessage(ctx, line)
		}}, nil
	}

	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case "/quit":
		return action{quit: true}, nil
	case "/events":
		return action{send: func(ctx context.Context, c *client.Client) error {
			return c.GetEvents(ctx)
		}}, nil
	case "/event":
		parts := strings.Split(rest, "|")
		if len(parts) != 5 {
			return action{}, errUsage
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		draft := command.CreateEvent{
			Title:       parts[0],
			Date:        parts[1],
			Time:        parts[2],
			Location:    parts[3],
			Description: parts[4],
		}
		return action{send: func(ctx context.Context, c *client.Client) error {
			return c.CreateEvent(ctx, draft)
		}}, nil
	case "/rsvp":
		id, err := strconv.Atoi(rest)
		if err != nil {
			return action{}, errUsage
		}
		return action{send: func(ctx context.Context, c *client.Client) error {
			return c.RSVP(ctx, id)
		}}, nil
	case "/search":
		query := search.NewSearchQuery(rest)
		if query.Terms == "" {
			return action{}, errUsage
		}
		return action{send: func(ctx context.Context, c *client.Client) error {
			return c.Search(ctx, query.Terms, query.Limit)
		}}, nil
	default:
		return action{}, errUsage
	}
}
