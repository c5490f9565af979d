// Package history holds the append-only message log.
// Handles ordering and stable snapshot reads.
// Does not emit events or interact with transport directly.
package history

import (
	"chat-relay/domain"
	"sync"
)

// Log is the single global total order of every message routed during
// the process lifetime, group and private interleaved. It only grows;
// there is no eviction policy.
type Log struct {
	mu       sync.RWMutex
	messages []domain.Message
}

func NewLog() *Log {
	return &Log{messages: nil}
}

func (l *Log) Append(m domain.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, m)
}

// All returns a copy of the full history in append order. The copy is
// what init replay hands to a new joiner, so concurrent appends can
// never tear it.
func (l *Log) All() []domain.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
