package sink_test

import (
	"companion-hub/domain/event"
	"companion-hub/errors"
	"companion-hub/sink"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectionSink_QueuesInOrder(t *testing.T) {
	req := require.New(t)
	s := sink.NewConnectionSink("c1", 4)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		req.NoError(s.Consume(ctx, event.To("c1", event.UserCount{Count: i})))
	}

	for i := 1; i <= 3; i++ {
		req.Equal(event.UserCount{Count: i}, (<-s.Outbound()).Outbound)
	}
}

func TestConnectionSink_FullQueueTimesOut(t *testing.T) {
	req := require.New(t)
	s := sink.NewConnectionSink("c1", 1)
	req.NoError(s.Consume(context.Background(), event.Broadcast(event.UserCount{Count: 1})))

	// Given nobody drains the queue
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Consume(ctx, event.Broadcast(event.UserCount{Count: 2}))

	// Then the delivery is reported as a transport failure
	req.ErrorIs(err, errors.ErrTransportFailure)
}

func TestConnectionSink_ClosedRejects(t *testing.T) {
	req := require.New(t)
	s := sink.NewConnectionSink("c1", 1)

	req.NoError(s.Close())
	req.NoError(s.Close())

	req.ErrorIs(s.Consume(context.Background(), event.Broadcast(event.UserCount{})), errors.ErrSessionClosed)
	select {
	case <-s.Done():
	default:
		req.Fail("done should be closed")
	}
}
