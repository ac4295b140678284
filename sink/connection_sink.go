package sink

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"sync"
)

var _ contract.ClientHandle = (*ConnectionSink)(nil)

// ConnectionSink is the ClientHandle of one transport connection.
// Deliver hands the message over to the connection's writer loop through a buffered
// channel; the transport owns the loop and drains Events until it calls Close.
type ConnectionSink struct {
	events    chan domain.Message
	done      chan struct{}
	closeOnce sync.Once
}

func NewConnectionSink(bufferSize int) *ConnectionSink {
	return &ConnectionSink{
		events: make(chan domain.Message, bufferSize),
		done:   make(chan struct{}),
	}
}

// Deliver is called by the delivery workers.
// A full buffer that does not drain before ctx expires is reported as a timeout,
// a closed connection as unreachable.
func (s *ConnectionSink) Deliver(ctx context.Context, message domain.Message) error {
	select {
	case <-s.done:
		return errors.ErrDeliveryUnreachable
	default:
	}
	select {
	case s.events <- message:
		return nil
	case <-s.done:
		return errors.ErrDeliveryUnreachable
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", errors.ErrDeliveryTimeout, ctx.Err())
	}
}

// Events is read by the transport writer loop.
func (s *ConnectionSink) Events() <-chan domain.Message {
	return s.events
}

// Done is closed once the connection is gone.
func (s *ConnectionSink) Done() <-chan struct{} {
	return s.done
}

// Close marks the connection as gone. Safe to call several times.
func (s *ConnectionSink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
