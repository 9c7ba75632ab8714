package sink

import (
	"companion-hub/contract"
	"companion-hub/domain"
	"companion-hub/domain/event"
	"companion-hub/errors"
	"context"
	"fmt"
	"sync"
)

var _ contract.Connection = (*ConnectionSink)(nil)

// ConnectionSink is the outbound queue of one transport connection.
// The fanout writes into it, the transport writer drains it.
type ConnectionSink struct {
	id        domain.ConnID
	outbound  chan event.Envelope
	done      chan struct{}
	closeOnce sync.Once
}

func NewConnectionSink(id domain.ConnID, bufferSize int) *ConnectionSink {
	return &ConnectionSink{
		id:       id,
		outbound: make(chan event.Envelope, bufferSize),
		done:     make(chan struct{}),
	}
}

func (s *ConnectionSink) ID() domain.ConnID { return s.id }

// Consume is called by fanout.
// A full queue that does not drain before ctx expires is a transport failure.
func (s *ConnectionSink) Consume(ctx context.Context, e event.Envelope) error {
	select {
	case <-s.done:
		return errors.ErrSessionClosed
	default:
	}
	select {
	case s.outbound <- e:
		return nil
	case <-s.done:
		return errors.ErrSessionClosed
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", errors.ErrTransportFailure, ctx.Err())
	}
}

// Outbound is drained by the transport writer.
func (s *ConnectionSink) Outbound() <-chan event.Envelope { return s.outbound }

// Done is closed once the connection is closed, by either side.
func (s *ConnectionSink) Done() <-chan struct{} { return s.done }

func (s *ConnectionSink) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
