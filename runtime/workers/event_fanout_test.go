package workers

import (
	"companion-hub/contract"
	"companion-hub/domain"
	"companion-hub/domain/event"
	"companion-hub/errors"
	"companion-hub/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newConnMock(ctrl *gomock.Controller, id domain.ConnID) *mocks.MockConnection {
	conn := mocks.NewMockConnection(ctrl)
	conn.EXPECT().ID().Return(id).AnyTimes()
	return conn
}

func TestEventFanout_BroadcastReachesSinksAndConnections(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	journal := mocks.NewMockEventSink(ctrl)
	c1, c2 := newConnMock(ctrl, "c1"), newConnMock(ctrl, "c2")

	env := event.Broadcast(event.NewMessage{Message: domain.Message{Sender: "User-a", Content: "hi"}})

	// Given two live connections and a journal
	registry.EXPECT().ListLive().Return([]contract.Connection{c1, c2})
	gomock.InOrder(
		journal.EXPECT().Consume(gomock.Any(), env).Return(nil),
		c1.EXPECT().Consume(gomock.Any(), env).Return(nil),
		c2.EXPECT().Consume(gomock.Any(), env).Return(nil),
	)

	fanout := NewEventFanout(log, []contract.EventSink{journal}, registry, nil, nil, time.Second)

	// When the envelope is fanned out
	delivered := fanout.Fanout(context.Background(), env)

	// Then everybody received it
	req.Equal(2, delivered)
}

func TestEventFanout_TargetedAndExcluded(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	journal := mocks.NewMockEventSink(ctrl)
	c1, c2 := newConnMock(ctrl, "c1"), newConnMock(ctrl, "c2")
	registry.EXPECT().ListLive().Return([]contract.Connection{c1, c2}).Times(2)
	fanout := NewEventFanout(log, []contract.EventSink{journal}, registry, nil, nil, time.Second)

	// Given a targeted error, then a broadcast excluding c1
	targeted := event.To("c2", event.Error{Message: "Event not found"})
	excluding := event.Broadcast(event.UserCount{Count: 2})
	excluding.Exclude = "c1"

	// Then the journal sees only the broadcast and c1 nothing at all
	c2.EXPECT().Consume(gomock.Any(), targeted).Return(nil)
	journal.EXPECT().Consume(gomock.Any(), excluding).Return(nil)
	c2.EXPECT().Consume(gomock.Any(), excluding).Return(nil)

	req.Equal(1, fanout.Fanout(context.Background(), targeted))
	req.Equal(1, fanout.Fanout(context.Background(), excluding))
}

func TestEventFanout_EvictsFailingConnection(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	slow, healthy := newConnMock(ctrl, "slow"), newConnMock(ctrl, "healthy")
	telemetry := make(chan event.Event, 10)
	info := event.UserInfo{ID: "u-slow", SessionID: "s-slow", Name: "User-u-slow"}

	env := event.Broadcast(event.NewMessage{Message: domain.Message{Content: "hi"}})

	// Given the slow connection never accepts within the sink timeout
	registry.EXPECT().ListLive().Return([]contract.Connection{slow, healthy})
	slow.EXPECT().Consume(gomock.Any(), env).DoAndReturn(func(ctx context.Context, _ event.Envelope) error {
		<-ctx.Done()
		return errors.ErrTransportFailure
	})
	healthy.EXPECT().Consume(gomock.Any(), env).Return(nil)

	// Then it is unregistered, closed and announced to the remaining connection
	registry.EXPECT().Unregister(domain.ConnID("slow")).Return(info, true)
	slow.EXPECT().Close().Return(nil)
	registry.EXPECT().ListLive().Return([]contract.Connection{healthy}).Times(2)
	registry.EXPECT().Count().Return(1)
	gomock.InOrder(
		healthy.EXPECT().Consume(gomock.Any(), gomock.Cond(func(e event.Envelope) bool {
			return e.Outbound == event.UserDisconnected{User: info}
		})).Return(nil),
		healthy.EXPECT().Consume(gomock.Any(), gomock.Cond(func(e event.Envelope) bool {
			return e.Outbound == event.UserCount{Count: 1}
		})).Return(nil),
	)

	fanout := NewEventFanout(log, nil, registry, nil, telemetry, 20*time.Millisecond)
	delivered := fanout.Fanout(context.Background(), env)

	req.Equal(1, delivered)
	evicted := <-telemetry
	req.Equal(event.ConnectionEvictedType, evicted.Type)
}

func TestEventFanout_EvictionOfSupersededConnectionIsSilent(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	gone := newConnMock(ctrl, "gone")
	env := event.To("gone", event.UserCount{Count: 1})

	// Given a connection already unregistered by its own reader
	registry.EXPECT().ListLive().Return([]contract.Connection{gone})
	gone.EXPECT().Consume(gomock.Any(), env).Return(errors.ErrSessionClosed)
	registry.EXPECT().Unregister(domain.ConnID("gone")).Return(event.UserInfo{}, false)
	gone.EXPECT().Close().Return(nil)

	// Then nothing is announced
	fanout := NewEventFanout(log, nil, registry, nil, nil, time.Second)
	req.Zero(fanout.Fanout(context.Background(), env))
}

func TestEventFanout_Run(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	c1 := newConnMock(ctrl, "c1")
	events := make(chan event.Envelope, 1)
	telemetry := make(chan event.Event, 1)

	env := event.To("c1", event.UserCount{Count: 1})
	registry.EXPECT().ListLive().Return([]contract.Connection{c1})
	c1.EXPECT().Consume(gomock.Any(), env).Return(nil)

	events <- env
	close(events)

	// When the worker drains the channel
	err := NewEventFanout(log, nil, registry, events, telemetry, time.Second).Run(context.Background())

	// Then a latency sample was reported
	req.NoError(err)
	sample := <-telemetry
	req.Equal(event.DeliveryLatencyType, sample.Type)
	req.Equal(1, sample.Payload.(event.DeliveryLatency).Recipients)
}
