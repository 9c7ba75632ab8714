package event

import "time"

type Type string

const (
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
	ChannelCapacityType     Type = "CHANNEL_CAPACITY"
	ProcessStatsType        Type = "PROCESS_STATS"
	DeliveryLatencyType     Type = "DELIVERY_LATENCY"
	ConnectionEvictedType   Type = "CONNECTION_EVICTED"
)

// Event is a technical event consumed by telemetry handlers.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

type WorkerRestartedAfterPanic struct {
	WorkerName string
}

type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

type ProcessStats struct {
	PID             int32
	RSS             uint64
	CPU             float64
	LiveConnections int
}

type DeliveryLatency struct {
	Event      Name
	Recipients int
	LeadTime   time.Duration
}

type ConnectionEvicted struct {
	ConnID string
	Reason string
}

func NewTechnicalEvent(t Type, payload any) Event {
	return Event{Type: t, CreatedAt: time.Now().UTC(), Payload: payload}
}
