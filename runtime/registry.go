package runtime

import (
	"companion-hub/contract"
	"companion-hub/domain"
	"companion-hub/domain/event"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

var _ contract.IRegistry = (*Registry)(nil)

// session survives its connections: an offline session has no live conn.
type session struct {
	identity    domain.Identity
	info        event.UserInfo
	live        contract.Connection
	connectedAt time.Time
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session        // map session_id -> session
	conns    map[domain.ConnID]*session // map live connection -> its session
	order    []domain.ConnID            // registration order of live connections
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		conns:    make(map[domain.ConnID]*session),
		now:      time.Now,
	}
}

// Register makes conn the live connection of the identity's session.
// A previous live connection is returned so the caller can decide its fate:
// it is detached from the session but not closed.
// A user without an ID is derived from the identity.
func (r *Registry) Register(identity domain.Identity, user domain.User, conn contract.Connection) (event.UserInfo, contract.Connection) {
	if user.ID == "" {
		user = domain.NewUser(identity.UserID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[identity.SessionID]
	if !ok {
		s = &session{}
		r.sessions[identity.SessionID] = s
	}

	var superseded contract.Connection
	if s.live != nil && s.live.ID() != conn.ID() {
		superseded = s.live
		r.detach(superseded.ID())
	}

	at := r.now()
	s.identity = identity
	s.live = conn
	s.connectedAt = at
	s.info = event.UserInfo{
		ID:          user.ID,
		SessionID:   identity.SessionID,
		Name:        user.Name,
		ConnectedAt: at.Format(domain.TimestampLayout),
	}
	if _, exists := r.conns[conn.ID()]; !exists {
		r.order = append(r.order, conn.ID())
	}
	r.conns[conn.ID()] = s
	return s.info, superseded
}

// Unregister removes a live connection and leaves its session offline.
// It reports false when the connection is unknown, already removed or superseded.
func (r *Registry) Unregister(id domain.ConnID) (event.UserInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.conns[id]
	if !ok {
		return event.UserInfo{}, false
	}
	r.detach(id)
	s.live = nil
	return s.info, true
}

func (r *Registry) detach(id domain.ConnID) {
	delete(r.conns, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

// Lookup returns the presence info of a live connection.
func (r *Registry) Lookup(id domain.ConnID) (event.UserInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.conns[id]
	if !ok {
		return event.UserInfo{}, false
	}
	return s.info, true
}

// ListLive returns a snapshot of live connections in registration order.
func (r *Registry) ListLive() []contract.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(r.order, func(id domain.ConnID, _ int) contract.Connection {
		return r.conns[id].live
	})
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Session reports the identity of a known session and whether it is online.
func (r *Registry) Session(sessionID string) (identity domain.Identity, online bool, known bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return domain.Identity{}, false, false
	}
	return s.identity, s.live != nil, true
}
