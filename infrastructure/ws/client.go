package ws

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// client ties one websocket connection to its relay identity and sink.
type client struct {
	conn     *websocket.Conn
	sink     *Sink
	relay    contract.IRelay
	log      *slog.Logger
	identity domain.Identity
}

// readPump decodes inbound frames into commands until the connection
// dies, then tears the identity down. Invalid frames are dropped and
// logged; the connection itself stays up.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		c.relay.Disconnect(c.identity)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("Unexpected websocket close",
					"identity", string(c.identity), "error", err)
			}
			return
		}

		cmd, err := DecodeFrame(data, c.identity)
		if err != nil {
			c.log.Debug("Dropping invalid frame",
				"identity", string(c.identity), "error", err)
			continue
		}

		if err := c.relay.Dispatch(ctx, cmd); err != nil {
			return
		}
	}
}

// writePump serializes sink events onto the wire and keeps the
// connection alive with pings.
func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return

		case evt := <-c.sink.Events():
			payload, err := EncodeEvent(evt)
			if err != nil {
				c.log.Error("Failed to encode event",
					"event", evt.Name(), "error", err)
				continue
			}

			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
