// Package observability aggregates runtime counters for the heartbeat log.
package observability

import (
	"sync/atomic"
	"time"
)

// RelayStats is a point-in-time view of the relay counters.
type RelayStats struct {
	Connections       int64  `json:"connections"`
	MessagesRouted    uint64 `json:"messages_routed"`
	CensoredHits      uint64 `json:"censored_hits"`
	DroppedDeliveries uint64 `json:"dropped_deliveries"`
	Since             string `json:"since"`
}

// Monitor collects cheap atomic counters from the relay hot path.
type Monitor struct {
	connections       atomic.Int64
	messagesRouted    atomic.Uint64
	censoredHits      atomic.Uint64
	droppedDeliveries atomic.Uint64
	startedAt         time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{startedAt: time.Now().UTC()}
}

func (m *Monitor) IncrConnections() { m.connections.Add(1) }

func (m *Monitor) DecrConnections() { m.connections.Add(-1) }

func (m *Monitor) IncrMessagesRouted() { m.messagesRouted.Add(1) }

func (m *Monitor) IncrCensoredHits(n uint64) { m.censoredHits.Add(n) }

func (m *Monitor) IncrDroppedDeliveries() { m.droppedDeliveries.Add(1) }

func (m *Monitor) GetLatest() RelayStats {
	return RelayStats{
		Connections:       m.connections.Load(),
		MessagesRouted:    m.messagesRouted.Load(),
		CensoredHits:      m.censoredHits.Load(),
		DroppedDeliveries: m.droppedDeliveries.Load(),
		Since:             m.startedAt.Format(time.RFC3339),
	}
}
