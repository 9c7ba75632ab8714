// Package services holds the per-connection protocol logic.
package services

import (
	"companion-hub/contract"
	"companion-hub/domain"
	"companion-hub/domain/command"
	"companion-hub/domain/event"
	"companion-hub/errors"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

type State int

const (
	Connecting State = iota
	Identified
	Synced
	Active
	Disconnected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Identified:
		return "identified"
	case Synced:
		return "synced"
	case Active:
		return "active"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session drives one connection through
// Connecting -> Identified -> Synced -> Active, until Disconnected.
type Session struct {
	mu            sync.Mutex
	log           *slog.Logger
	orchestrator  contract.IOrchestrator
	identity      domain.Identity
	sender        domain.User
	conn          contract.Connection
	user          event.UserInfo
	state         State
	askedMessages bool
	askedEvents   bool
}

func NewSession(log *slog.Logger, orchestrator contract.IOrchestrator,
	identity domain.Identity, sender domain.User, conn contract.Connection) *Session {
	return &Session{
		log:          log.With("conn_id", conn.ID(), "session_id", identity.SessionID),
		orchestrator: orchestrator,
		identity:     identity,
		sender:       sender,
		conn:         conn,
		state:        Connecting,
	}
}

// Open registers the connection and announces it.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Connecting {
		return errors.ErrSessionClosed
	}
	user, err := s.orchestrator.Connect(ctx, s.identity, s.sender, s.conn)
	if err != nil {
		return err
	}
	s.user = user
	s.state = Identified
	return nil
}

// Handle interprets one inbound request. A request that cannot be decoded
// still travels to the sequencer so its error reply keeps its place in the stream.
func (s *Session) Handle(ctx context.Context, name string, data json.RawMessage) error {
	req, err := command.Decode(name, data)
	return s.dispatch(ctx, req, err)
}

// HandleFrame decodes a raw text frame read off the socket.
func (s *Session) HandleFrame(ctx context.Context, raw []byte) error {
	req, err := command.DecodeFrame(raw)
	return s.dispatch(ctx, req, err)
}

func (s *Session) dispatch(ctx context.Context, req command.Request, decodeErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Disconnected || s.state == Connecting {
		return errors.ErrSessionClosed
	}

	if decodeErr != nil {
		s.log.Debug("Malformed request", "error", decodeErr)
		req = command.Invalid{Err: decodeErr}
	}
	if msg, ok := req.(command.SendMessage); ok && msg.IsBlank() {
		return nil
	}

	if err := s.orchestrator.Dispatch(ctx, command.Command{
		Origin:   s.conn.ID(),
		Identity: s.identity,
		User:     s.sender,
		Request:  req,
	}); err != nil {
		return err
	}
	s.advance(req)
	return nil
}

func (s *Session) advance(req command.Request) {
	switch req.(type) {
	case command.GetMessages:
		s.askedMessages = true
	case command.GetEvents:
		s.askedEvents = true
	case command.SendMessage, command.CreateEvent, command.RSVPEvent:
		if s.state != Active {
			s.log.Debug("Session active", "user", s.user.Name)
		}
		s.state = Active
		return
	}
	if s.state == Identified && s.askedMessages && s.askedEvents {
		s.state = Synced
	}
}

// Close is idempotent. Whatever the cause, the connection is unregistered
// and closed, and the session rejects any further request.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.state == Disconnected {
		s.mu.Unlock()
		return
	}
	wasOpen := s.state != Connecting
	s.state = Disconnected
	s.mu.Unlock()

	if wasOpen {
		s.orchestrator.Disconnect(ctx, s.conn.ID())
	}
	if err := s.conn.Close(); err != nil {
		s.log.Debug("Close failed", "error", err)
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) User() event.UserInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}
