package ws

import (
	"chat-relay/domain/event"
	"context"
	"log/slog"
)

// Sink buffers relay events for one connection. The relay consumes it
// synchronously with a timeout context; the write pump drains it at the
// pace the client can sustain.
type Sink struct {
	log    *slog.Logger
	events chan event.DomainEvent
}

func NewSink(log *slog.Logger, bufferSize int) *Sink {
	return &Sink{
		log:    log,
		events: make(chan event.DomainEvent, bufferSize),
	}
}

// Consume implements contract.EventSink. When the buffer is full the
// call blocks until there is room or the relay's delivery timeout
// expires; the event is then dropped for this connection only.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events exposes the buffered events to the write pump.
func (s *Sink) Events() <-chan event.DomainEvent {
	return s.events
}
