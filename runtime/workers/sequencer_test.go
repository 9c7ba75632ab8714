package workers

import (
	"companion-hub/domain/command"
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

func TestSequencerWorker_ForwardsEnvelopesInOrder(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockIEngine(ctrl)

	commands := make(chan command.Command, 2)
	events := make(chan event.Envelope, 10)

	// Given the engine answers two envelopes for the first command and one for the second
	gomock.InOrder(
		engine.EXPECT().Apply(gomock.Any(), command.Command{Origin: "c1", Request: command.GetMessages{}}).
			Return([]event.Envelope{
				event.To("c1", event.UserCount{Count: 1}),
				event.To("c1", event.UserCount{Count: 2}),
			}),
		engine.EXPECT().Apply(gomock.Any(), command.Command{Origin: "c2", Request: command.GetEvents{}}).
			Return([]event.Envelope{event.To("c2", event.UserCount{Count: 3})}),
	)
	commands <- command.Command{Origin: "c1", Request: command.GetMessages{}}
	commands <- command.Command{Origin: "c2", Request: command.GetEvents{}}
	close(commands)

	// When the worker drains the channel
	err := NewSequencerWorker(engine, commands, events, log).Run(context.Background())

	// Then envelopes keep the acceptance order
	req.NoError(err)
	req.Len(events, 3)
	for i := 1; i <= 3; i++ {
		req.Equal(event.UserCount{Count: i}, (<-events).Outbound)
	}
}

func TestSequencerWorker_StopsOnCancel(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockIEngine(ctrl)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewSequencerWorker(engine, make(chan command.Command), make(chan event.Envelope), log).Run(ctx)

	req.ErrorIs(err, context.DeadlineExceeded)
}
