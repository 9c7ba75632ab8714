// Package ws exposes the hub over WebSocket.
package ws

import (
	"companion-hub/auth"
	"companion-hub/contract"
	"companion-hub/domain"
	"companion-hub/domain/event"
	"companion-hub/services"
	"companion-hub/sink"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const maxFrameSize = 64 * 1024

type Config struct {
	ConnectionBufferSize int
	WriteTimeout         time.Duration
	PongTimeout          time.Duration
	// Empty or containing "*" accepts every origin
	AllowedOrigins []string
}

// HubStats feeds the /healthz endpoint.
type HubStats interface {
	LiveCount() int
	HistoryStats() (messages, events int)
}

type Server struct {
	log          *slog.Logger
	resolver     *auth.Resolver
	orchestrator contract.IOrchestrator
	stats        HubStats
	upgrader     websocket.Upgrader
	config       Config
}

func NewServer(log *slog.Logger, resolver *auth.Resolver, orchestrator contract.IOrchestrator,
	stats HubStats, config Config) *Server {
	if config.ConnectionBufferSize <= 0 {
		config.ConnectionBufferSize = 64
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.PongTimeout <= 0 {
		config.PongTimeout = 60 * time.Second
	}
	s := &Server{
		log:          log,
		resolver:     resolver,
		orchestrator: orchestrator,
		stats:        stats,
		config:       config,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Routes serves /ws and /healthz.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.ServeWS)
	mux.HandleFunc("GET /healthz", s.healthz)
	return mux
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.config.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(s.config.AllowedOrigins, "*") ||
		slices.Contains(s.config.AllowedOrigins, origin)
}

// ServeWS upgrades the request and runs the connection until either side leaves.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	identity, user := s.resolver.Resolve(query.Get("user_id"), query.Get("session_id"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already replied with an HTTP error
		s.log.Debug("Upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connSink := sink.NewConnectionSink(domain.ConnID(uuid.NewString()), s.config.ConnectionBufferSize)
	session := services.NewSession(s.log, s.orchestrator, identity, user, connSink)
	log := s.log.With("conn_id", connSink.ID(), "user_id", identity.UserID)

	if err := session.Open(ctx); err != nil {
		log.Warn("Connection refused", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "hub unavailable"),
			time.Now().Add(s.config.WriteTimeout))
		_ = conn.Close()
		return
	}
	log.Info("Connection opened", "user", session.User().Name)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(ctx, conn, connSink, log)
	}()

	s.readPump(ctx, conn, session, log)

	session.Close(ctx)
	cancel()
	<-writerDone
	log.Info("Connection closed", "user", session.User().Name)
}

// readPump returns on the first transport error.
func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, session *services.Session, log *slog.Logger) {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	})

	for {
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("Read failed", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if err := session.HandleFrame(ctx, raw); err != nil {
			log.Debug("Frame not dispatched", "error", err)
			return
		}
	}
}

// writePump is the only writer of the socket.
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, connSink *sink.ConnectionSink, log *slog.Logger) {
	ticker := time.NewTicker(s.config.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-connSink.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.config.WriteTimeout))
			return
		case env := <-connSink.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteJSON(event.ToFrame(env.Outbound)); err != nil {
				log.Debug("Write failed", "event", env.Outbound.Name(), "error", err)
				_ = connSink.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil,
				time.Now().Add(s.config.WriteTimeout)); err != nil {
				log.Debug("Ping failed", "error", err)
				_ = connSink.Close()
				return
			}
		}
	}
}

type health struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Messages    int    `json:"messages"`
	Events      int    `json:"events"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	messages, events := s.stats.HistoryStats()
	_ = json.NewEncoder(w).Encode(health{
		Status:      "ok",
		Connections: s.stats.LiveCount(),
		Messages:    messages,
		Events:      events,
	})
}
