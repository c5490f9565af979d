package ws

import (
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSink_ConsumeBuffersEvents(t *testing.T) {
	req := require.New(t)
	sink := NewSink(slog.Default(), 2)

	req.NoError(sink.Consume(context.Background(), event.UserTyping{Username: "Alice"}))
	req.NoError(sink.Consume(context.Background(), event.UserStoppedTyping{Username: "Alice"}))

	evt := <-sink.Events()
	req.Equal("user-typing", evt.Name())
	evt = <-sink.Events()
	req.Equal("user-stopped-typing", evt.Name())
}

func TestSink_ConsumeDropsWhenFullAndContextExpires(t *testing.T) {
	req := require.New(t)
	sink := NewSink(slog.Default(), 1)

	req.NoError(sink.Consume(context.Background(), event.UserTyping{Username: "Alice"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sink.Consume(ctx, event.UserTyping{Username: "Bob"})
	req.ErrorIs(err, context.DeadlineExceeded)
}
