package workers

import (
	"companion-hub/contract"
	"companion-hub/domain/event"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout is the single consumer of sequenced envelopes.
//
// Broadcast envelopes first reach the permanent sinks (journal, search index),
// then every live connection in registry order. Targeted envelopes reach one
// connection only. Envelopes are handled one at a time, so each connection
// observes them in acceptance order.
//
// A connection whose sink fails or times out is evicted: unregistered, closed,
// and announced to the others with user_disconnected and user_count.
type EventFanout struct {
	log            *slog.Logger
	registry       contract.IRegistry
	permanentSinks []contract.EventSink
	events         <-chan event.Envelope
	telemetryChan  chan event.Event
	sinkTimeout    time.Duration
}

func NewEventFanout(
	log *slog.Logger,
	permanentSinks []contract.EventSink,
	registry contract.IRegistry,
	events <-chan event.Envelope,
	telemetryChan chan event.Event,
	sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:            log,
		registry:       registry,
		permanentSinks: permanentSinks,
		events:         events,
		telemetryChan:  telemetryChan,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		case env, ok := <-w.events:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			recipients := w.Fanout(ctx, env)
			w.emit(event.NewTechnicalEvent(event.DeliveryLatencyType, event.DeliveryLatency{
				Event:      env.Outbound.Name(),
				Recipients: recipients,
				LeadTime:   time.Since(env.AcceptedAt),
			}))
		}
	}
}

// Fanout delivers one envelope and returns how many connections received it.
func (w *EventFanout) Fanout(ctx context.Context, env event.Envelope) int {
	if env.IsBroadcast() {
		for _, sink := range w.permanentSinks {
			if err := w.deliver(ctx, sink, env); err != nil {
				w.log.Error("Permanent sink failed", "event", env.Outbound.Name(), "error", err)
			}
		}
	}

	delivered := 0
	var failed []contract.Connection
	for _, conn := range w.registry.ListLive() {
		if !env.DeliversTo(conn.ID()) {
			continue
		}
		if err := w.deliver(ctx, conn, env); err != nil {
			w.log.Warn("Delivery failed", "conn_id", conn.ID(), "event", env.Outbound.Name(), "error", err)
			failed = append(failed, conn)
			continue
		}
		delivered++
	}

	for _, conn := range failed {
		w.evict(ctx, conn)
	}
	return delivered
}

func (w *EventFanout) deliver(ctx context.Context, sink contract.EventSink, env event.Envelope) error {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	return sink.Consume(sinkCtx, env)
}

// evict announces the departure inline. It must not go through the command
// channel: the sequencer may itself be blocked sending to this worker.
func (w *EventFanout) evict(ctx context.Context, conn contract.Connection) {
	info, ok := w.registry.Unregister(conn.ID())
	if err := conn.Close(); err != nil {
		w.log.Debug("Close after eviction failed", "conn_id", conn.ID(), "error", err)
	}
	if !ok {
		return
	}
	w.emit(event.NewTechnicalEvent(event.ConnectionEvictedType, event.ConnectionEvicted{
		ConnID: string(conn.ID()),
		Reason: "delivery failed",
	}))
	w.Fanout(ctx, event.Broadcast(event.UserDisconnected{User: info}))
	w.Fanout(ctx, event.Broadcast(event.UserCount{Count: w.registry.Count()}))
}

func (w *EventFanout) emit(e event.Event) {
	if w.telemetryChan == nil {
		return
	}
	select {
	case w.telemetryChan <- e:
	default:
		w.log.Debug("Observability telemetry event lost")
	}
}
