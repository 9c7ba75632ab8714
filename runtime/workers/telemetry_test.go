package workers

import (
	"companion-hub/domain/event"
	"companion-hub/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingHandler struct {
	events chan event.Event
}

func (h recordingHandler) Handle(e event.Event) { h.events <- e }

func TestTelemetryWorker_CallsEveryHandler(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	telemetry := make(chan event.Event, 1)
	first := recordingHandler{events: make(chan event.Event, 1)}
	second := recordingHandler{events: make(chan event.Event, 1)}

	telemetry <- event.NewTechnicalEvent(event.ChannelCapacityType, event.ChannelCapacity{ChannelName: "commands"})
	close(telemetry)

	err := NewTelemetryWorker(log, telemetry, []event.Handler{first, second}).Run(context.Background())

	req.NoError(err)
	req.Equal(event.ChannelCapacityType, (<-first.events).Type)
	req.Equal(event.ChannelCapacityType, (<-second.events).Type)
}

func TestChannelCapacityWorker_Samples(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	telemetry := make(chan event.Event, 10)
	commands := make(chan int, 4)
	commands <- 1

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	// Given a real channel and something that is not a channel
	channels := []NamedChannel{{Name: "commands", Channel: commands}, {Name: "bogus", Channel: 42}}

	err := NewChannelCapacityWorker(log, channels, telemetry, 10*time.Millisecond).Run(ctx)

	// Then only the channel is sampled
	req.NoError(err)
	req.NotEmpty(telemetry)
	sample := (<-telemetry).Payload.(event.ChannelCapacity)
	req.Equal(event.ChannelCapacity{ChannelName: "commands", Capacity: 4, Length: 1}, sample)
}

func TestProcessStatsWorker_Samples(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().Count().Return(3).AnyTimes()
	telemetry := make(chan event.Event, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := NewProcessStatsWorker(log, registry, telemetry, 20*time.Millisecond).Run(ctx)

	req.NoError(err)
	req.NotEmpty(telemetry)
	stats := (<-telemetry).Payload.(event.ProcessStats)
	req.Equal(3, stats.LiveConnections)
	req.NotZero(stats.RSS)
}
