package event

import (
	"companion-hub/errors"
	"log/slog"
)

type ConnectionEvictedHandler struct {
	log     *slog.Logger
	counter *Counter
}

func NewConnectionEvictedHandler(log *slog.Logger, counter *Counter) *ConnectionEvictedHandler {
	return &ConnectionEvictedHandler{log: log, counter: counter}
}

func (h *ConnectionEvictedHandler) Handle(event Event) {
	if event.Type != ConnectionEvictedType {
		return
	}
	payload, ok := event.Payload.(ConnectionEvicted)
	if !ok {
		h.log.Error(errors.ErrInvalidPayload.Error(), "type", event.Type)
		return
	}
	h.counter.Increment(ConnectionEvictedType)
	h.log.Info("Connection evicted", "conn_id", payload.ConnID, "reason", payload.Reason,
		"total", h.counter.Get(ConnectionEvictedType))
}
