package runtime

import (
	"chat-relay/domain"
	"sync"

	"github.com/samber/lo"
)

// TypingTracker is the ephemeral set of identities currently marked
// typing, together with the display name each indicator was announced
// under. Nothing here is persisted or replayed to new joiners; the set
// only exists so renames and disconnects can clear a stale indicator.
type TypingTracker struct {
	mu     sync.Mutex
	typing map[domain.Identity]string
}

func NewTypingTracker() *TypingTracker {
	return &TypingTracker{typing: make(map[domain.Identity]string)}
}

// MarkTyping records id as typing under name and returns the name the
// indicator was previously announced under, if any. A duplicate signal
// leaves membership untouched and refreshes the announced name.
func (t *TypingTracker) MarkTyping(id domain.Identity, name string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	previous, wasTyping := t.typing[id]
	t.typing[id] = name
	return previous, wasTyping
}

// MarkStopped removes id from the set and returns the name its
// indicator was announced under. Returns false when id was not typing.
func (t *TypingTracker) MarkStopped(id domain.Identity) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	name, wasTyping := t.typing[id]
	delete(t.typing, id)
	return name, wasTyping
}

// Rename updates the announced name of a typing identity and returns
// the name it was announced under before. No-op when id is not typing.
func (t *TypingTracker) Rename(id domain.Identity, name string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	previous, wasTyping := t.typing[id]
	if !wasTyping {
		return "", false
	}
	t.typing[id] = name
	return previous, true
}

// Active returns the display names currently marked typing.
func (t *TypingTracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return lo.Values(t.typing)
}
