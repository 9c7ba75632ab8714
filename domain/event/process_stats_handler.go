package event

import (
	"companion-hub/errors"
	"fmt"
	"log/slog"
)

type ProcessStatsHandler struct {
	log *slog.Logger
}

func NewProcessStatsHandler(log *slog.Logger) *ProcessStatsHandler {
	return &ProcessStatsHandler{log: log}
}

func (h ProcessStatsHandler) Handle(event Event) {
	if event.Type != ProcessStatsType {
		return
	}
	payload, ok := event.Payload.(ProcessStats)
	if !ok {
		h.log.Error(errors.ErrInvalidPayload.Error(), "type", event.Type)
		return
	}
	h.log.Debug(fmt.Sprintf("[HUB] PID %d | CPU %.2f%% | RSS %d KiB | %d live connections",
		payload.PID, payload.CPU, payload.RSS/1024, payload.LiveConnections))
}
