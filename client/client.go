// Package client is a small WebSocket client for the hub, used by the
// viewer and by end to end tests.
package client

import (
	"companion-hub/domain/command"
	"companion-hub/domain/event"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const readLimit = 1 << 20

// Frame is an outbound frame as received by a client.
type Frame struct {
	Event event.Name      `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Decode unmarshals the frame payload into v.
func (f Frame) Decode(v any) error {
	return json.Unmarshal(f.Data, v)
}

type Client struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
}

// Dial connects to baseURL/ws with the given tokens. Empty tokens are
// allocated by the server.
func Dial(ctx context.Context, baseURL, userID, sessionID string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	q := u.Query()
	if userID != "" {
		q.Set("user_id", userID)
	}
	if sessionID != "" {
		q.Set("session_id", sessionID)
	}
	u.RawQuery = q.Encode()

	ws, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}
	ws.SetReadLimit(readLimit)
	return &Client{ws: ws, writeTimeout: 5 * time.Second}, nil
}

// Send writes one request frame. A nil payload is sent without data.
func (c *Client) Send(ctx context.Context, name command.Kind, payload any) error {
	frame := command.Frame{Event: string(name)}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		frame.Data = data
	}
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c.ws, frame)
}

func (c *Client) GetMessages(ctx context.Context) error {
	return c.Send(ctx, command.GetMessagesKind, nil)
}

func (c *Client) GetEvents(ctx context.Context) error {
	return c.Send(ctx, command.GetEventsKind, nil)
}

func (c *Client) SendMessage(ctx context.Context, content string) error {
	return c.Send(ctx, command.SendMessageKind, map[string]string{"content": content})
}

func (c *Client) CreateEvent(ctx context.Context, e command.CreateEvent) error {
	return c.Send(ctx, command.CreateEventKind, e)
}

func (c *Client) RSVP(ctx context.Context, eventID int) error {
	return c.Send(ctx, command.RSVPEventKind, map[string]int{"event_id": eventID})
}

// Search asks for messages matching terms. A zero limit uses the hub default.
func (c *Client) Search(ctx context.Context, terms string, limit int) error {
	return c.Send(ctx, command.SearchMessagesKind, struct {
		Query string `json:"query"`
		Limit int    `json:"limit,omitempty"`
	}{Query: terms, Limit: limit})
}

// Receive blocks until the next frame arrives.
func (c *Client) Receive(ctx context.Context) (Frame, error) {
	var f Frame
	err := wsjson.Read(ctx, c.ws, &f)
	return f, err
}

// ReceiveUntil skips frames until one named name arrives.
func (c *Client) ReceiveUntil(ctx context.Context, name event.Name) (Frame, error) {
	for {
		f, err := c.Receive(ctx)
		if err != nil {
			return Frame{}, err
		}
		if f.Event == name {
			return f, nil
		}
	}
}

func (c *Client) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "client close")
}

// IsClosed reports whether err is the expected end of a connection.
func IsClosed(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
