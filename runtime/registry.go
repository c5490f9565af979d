package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type session struct {
	username string
	sink     contract.EventSink
}

// Registry owns the connection -> (identity, display name) mapping and
// the per-identity delivery sinks. It is the single source of truth for
// the roster: presence broadcasts are always recomputed from Snapshot,
// never patched incrementally.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.Identity]*session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.Identity]*session),
	}
}

// Register issues a fresh identity for a live connection and stores a
// random default display name. The token is a v4 UUID: collision with a
// live identity is operationally impossible.
func (r *Registry) Register(sink contract.EventSink) (domain.Identity, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := domain.Identity(uuid.NewString())
	name := domain.DefaultUsername()
	r.sessions[id] = &session{username: name, sink: sink}
	return id, name
}

// SetUsername replaces the stored display name when the trimmed input is
// non-empty; a blank input keeps the current (possibly default) name.
// It returns the effective name after the call. Safe to call any number
// of times per connection.
func (r *Registry) SetUsername(id domain.Identity, username string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return "", false
	}
	if username != "" {
		s.username = username
	}
	return s.username, true
}

// Unregister removes the identity. Removing an unknown identity is a
// no-op so duplicate disconnect signals stay harmless.
func (r *Registry) Unregister(id domain.Identity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Resolve looks up the current display name of an identity. A missing
// identity is a normal outcome (already disconnected), not an error.
func (r *Registry) Resolve(id domain.Identity) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return "", false
	}
	return s.username, true
}

// Sink returns the delivery channel of an identity, if still connected.
func (r *Registry) Sink(id domain.Identity) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return s.sink, true
}

// Snapshot returns the full set of (identity, username) pairs. Order is
// not significant for consumers.
func (r *Registry) Snapshot() []domain.RosterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.MapToSlice(r.sessions, func(id domain.Identity, s *session) domain.RosterEntry {
		return domain.RosterEntry{ID: id, Username: s.username}
	})
}

// Sinks returns every connected sink, optionally excluding one identity
// (the originator of a typing signal already knows its own state).
func (r *Registry) Sinks(except ...domain.Identity) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	skip := make(map[domain.Identity]struct{}, len(except))
	for _, id := range except {
		skip[id] = struct{}{}
	}

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for id, s := range r.sessions {
		if _, excluded := skip[id]; excluded {
			continue
		}
		sinks = append(sinks, s.sink)
	}
	return sinks
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
