package ws

import (
	"chat-relay/contract"
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests to websocket sessions and binds each
// one to a relay identity.
type Handler struct {
	log                  *slog.Logger
	relay                contract.IRelay
	upgrader             websocket.Upgrader
	connectionBufferSize int
	maxMessageSize       int64
}

func NewHandler(log *slog.Logger, relay contract.IRelay,
	connectionBufferSize int, maxMessageSize int64, allowedOrigin string) *Handler {
	return &Handler{
		log:   log,
		relay: relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
		connectionBufferSize: connectionBufferSize,
		maxMessageSize:       maxMessageSize,
	}
}

// ServeHTTP blocks for the whole websocket session: the write pump runs
// in its own goroutine, the read pump in the request goroutine, and the
// deferred cancel stops the writer once the reader is done.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(h.maxMessageSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sink := NewSink(h.log, h.connectionBufferSize)
	identity, err := h.relay.Connect(ctx, sink)
	if err != nil {
		h.log.Error("Relay refused connection", "remote", r.RemoteAddr, "error", err)
		_ = conn.Close()
		return
	}

	c := &client{
		conn:     conn,
		sink:     sink,
		relay:    h.relay,
		log:      h.log,
		identity: identity,
	}

	go c.writePump(ctx)
	c.readPump(ctx)
}

// NewRouter wires the websocket endpoint and a liveness probe.
func NewRouter(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
