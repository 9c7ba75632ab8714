package event

import (
	"log/slog"
	"time"
)

// LatencyHandler reports how long an envelope waited between acceptance and delivery.
type LatencyHandler struct {
	log              *slog.Logger
	latencyThreshold time.Duration
}

func NewLatencyHandler(log *slog.Logger, latencyThreshold time.Duration) *LatencyHandler {
	return &LatencyHandler{log: log, latencyThreshold: latencyThreshold}
}

func (h *LatencyHandler) Handle(e Event) {
	payload, ok := e.Payload.(DeliveryLatency)
	if !ok {
		return
	}
	h.log.Debug("telemetry: delivery latency",
		"event", payload.Event,
		"recipients", payload.Recipients,
		"lead_time_us", payload.LeadTime.Microseconds(),
	)
	if payload.LeadTime > h.latencyThreshold {
		h.log.Warn("High latency detected", "event", payload.Event, "lead_time", payload.LeadTime)
	}
}
