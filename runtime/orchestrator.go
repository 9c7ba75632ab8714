package runtime

import (
	"companion-hub/contract"
	"companion-hub/domain"
	"companion-hub/domain/command"
	"companion-hub/domain/event"
	"companion-hub/errors"
	"companion-hub/moderation"
	"companion-hub/runtime/workers"
	"companion-hub/storage"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

var _ contract.IOrchestrator = (*Orchestrator)(nil)

type Config struct {
	BufferSize           int
	SinkTimeout          time.Duration
	MetricInterval       time.Duration
	LatencyThreshold     time.Duration
	LowCapacityThreshold int
	EnableModeration     bool
	CharReplacement      rune
	SearchLimit          int
}

// Orchestrator owns the command and envelope channels.
// Every request goes through Dispatch and is applied by a single sequencer.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	cfg            Config
	supervisor     contract.ISupervisor
	registry       contract.IRegistry
	store          *storage.HistoryStore
	index          contract.IMessageIndex
	permanentSinks []contract.EventSink
	commands       chan command.Command
	events         chan event.Envelope
	telemetry      chan event.Event
	stopped        chan struct{}
	stopOnce       sync.Once
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	registry contract.IRegistry, store *storage.HistoryStore,
	telemetry chan event.Event, cfg Config) *Orchestrator {
	return &Orchestrator{
		log:        log,
		cfg:        cfg,
		supervisor: supervisor,
		registry:   registry,
		store:      store,
		commands:   make(chan command.Command, cfg.BufferSize),
		events:     make(chan event.Envelope, cfg.BufferSize),
		telemetry:  telemetry,
		stopped:    make(chan struct{}),
	}
}

// Add registers permanent sinks fed with every broadcast envelope.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// WithIndex enables search_messages.
func (o *Orchestrator) WithIndex(index contract.IMessageIndex) *Orchestrator {
	o.index = index
	return o
}

// Restore warms the history store from a journal replay. Must be called before Start.
func (o *Orchestrator) Restore(messages []domain.Message, events []domain.Event) error {
	o.store.Restore(messages, events)
	if o.index != nil {
		for _, msg := range o.store.AllMessages() {
			if err := o.index.Index(msg); err != nil {
				return fmt.Errorf("failed to index restored message %d: %w", msg.Seq, err)
			}
		}
	}
	o.log.Info(fmt.Sprintf("History restored: %d messages, %d events", len(messages), len(events)))
	return nil
}

// Start prepares the engine and the workers, then launches the supervisor.
// It does not block.
func (o *Orchestrator) Start(ctx context.Context) error {
	// 1. Preparation phase (No Lock)
	// Loading files and building Aho-Corasick are done here.
	engine, err := o.prepareEngine()
	if err != nil {
		return err
	}

	// 2. Critical Section (Short Lock)
	o.mu.Lock()
	sinks := append([]contract.EventSink(nil), o.permanentSinks...)
	o.supervisor.Add(
		workers.NewSequencerWorker(engine, o.commands, o.events, o.log),
		workers.NewEventFanout(o.log, sinks, o.registry, o.events, o.telemetry, o.cfg.SinkTimeout),
	)
	if o.telemetry != nil {
		o.supervisor.Add(o.prepareTelemetry()...)
	}
	o.mu.Unlock()

	// 3. Execution phase (No Lock)
	o.log.Info("Starting orchestrator and all supervised workers")
	go o.supervisor.Run(ctx)
	return nil
}

func (o *Orchestrator) prepareEngine() (*Engine, error) {
	engine := NewEngine(o.log, o.store, o.registry)
	if o.index != nil {
		engine.WithIndex(o.index, o.cfg.SearchLimit)
	}
	if !o.cfg.EnableModeration {
		return engine, nil
	}
	moderator, err := o.prepareModeration()
	if err != nil {
		return nil, err
	}
	return engine.WithModerator(moderator), nil
}

// prepareModeration loads censored words and builds the Aho-Corasick automaton.
func (o *Orchestrator) prepareModeration() (*moderation.Moderator, error) {
	data, err := NewCensoredLoader(censoredFolder).LoadAll("censored")
	if err != nil {
		return nil, err
	}
	o.log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	o.log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	return moderation.NewModerator(data.Words, o.cfg.CharReplacement, o.log)
}

func (o *Orchestrator) prepareTelemetry() []contract.Worker {
	handlers := []event.Handler{
		event.NewWorkerRestartedAfterPanicHandler(o.log, event.NewCounter()),
		event.NewConnectionEvictedHandler(o.log, event.NewCounter()),
		event.NewChannelCapacityHandler(o.log, o.cfg.LowCapacityThreshold),
		event.NewProcessStatsHandler(o.log),
		event.NewLatencyHandler(o.log, o.cfg.LatencyThreshold),
	}
	channels := []workers.NamedChannel{
		{Name: "commands", Channel: o.commands},
		{Name: "events", Channel: o.events},
	}
	return []contract.Worker{
		workers.NewTelemetryWorker(o.log, o.telemetry, handlers),
		workers.NewChannelCapacityWorker(o.log, channels, o.telemetry, o.cfg.MetricInterval),
		workers.NewProcessStatsWorker(o.log, o.registry, o.telemetry, o.cfg.MetricInterval),
	}
}

// Connect registers conn as the live connection of its session and announces it.
func (o *Orchestrator) Connect(ctx context.Context, identity domain.Identity, user domain.User, conn contract.Connection) (event.UserInfo, error) {
	info, superseded := o.registry.Register(identity, user, conn)
	if superseded != nil {
		o.log.Info("Connection superseded", "conn_id", superseded.ID(), "session_id", identity.SessionID)
	}
	o.log.Info("User connected", "user", info.Name, "conn_id", conn.ID(),
		"session_id", identity.SessionID, "online", o.registry.Count())
	err := o.Dispatch(ctx, command.Command{
		Origin:   conn.ID(),
		Identity: identity,
		User:     domain.User{ID: info.ID, Name: info.Name},
		Request:  command.Joined{User: info},
	})
	if err != nil {
		o.registry.Unregister(conn.ID())
		return event.UserInfo{}, err
	}
	return info, nil
}

// Disconnect unregisters a connection. Only the call that actually removes
// a live connection announces the departure.
func (o *Orchestrator) Disconnect(ctx context.Context, id domain.ConnID) {
	info, ok := o.registry.Unregister(id)
	if !ok {
		return
	}
	o.log.Info("User disconnected", "user", info.Name, "conn_id", id,
		"session_id", info.SessionID, "online", o.registry.Count())
	err := o.Dispatch(ctx, command.Command{
		Origin:   id,
		Identity: domain.Identity{UserID: info.ID, SessionID: info.SessionID},
		User:     domain.User{ID: info.ID, Name: info.Name},
		Request:  command.Left{User: info},
	})
	if err != nil {
		o.log.Debug("Departure not announced", "conn_id", id, "error", err)
	}
}

// Dispatch hands a command to the sequencer.
// It blocks while the command channel is full, until ctx is done.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd command.Command) error {
	select {
	case <-o.stopped:
		return errors.ErrSessionClosed
	default:
	}
	select {
	case o.commands <- cmd:
		return nil
	case <-o.stopped:
		return errors.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LiveCount is the number of live connections.
func (o *Orchestrator) LiveCount() int {
	return o.registry.Count()
}

func (o *Orchestrator) HistoryStats() (messages, events int) {
	return o.store.Stats()
}

// Stop cancels the supervised workers. Further dispatches fail with ErrSessionClosed.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.log.Info("Requesting orchestrator shutdown")
		close(o.stopped)
		o.supervisor.Stop()
	})
}
