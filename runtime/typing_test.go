package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypingTracker_TransitionsAreIdempotent(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker()

	_, wasTyping := tracker.MarkTyping("id-1", "Alice")
	req.False(wasTyping)
	// Second signal changes membership in no way
	_, wasTyping = tracker.MarkTyping("id-1", "Alice")
	req.True(wasTyping)
	req.Len(tracker.Active(), 1)

	name, stopped := tracker.MarkStopped("id-1")
	req.True(stopped)
	req.Equal("Alice", name)
	_, stopped = tracker.MarkStopped("id-1")
	req.False(stopped)
	req.Empty(tracker.Active())
}

func TestTypingTracker_TracksMultipleIdentities(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker()

	tracker.MarkTyping("id-1", "Alice")
	tracker.MarkTyping("id-2", "Bob")
	req.ElementsMatch([]string{"Alice", "Bob"}, tracker.Active())

	tracker.MarkStopped("id-1")
	req.Equal([]string{"Bob"}, tracker.Active())
}

func TestTypingTracker_RenameFollowsTheIdentity(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker()

	_, wasTyping := tracker.Rename("id-1", "Alice")
	req.False(wasTyping)

	tracker.MarkTyping("id-1", "User-7")
	previous, wasTyping := tracker.Rename("id-1", "Alice")
	req.True(wasTyping)
	req.Equal("User-7", previous)
	req.Equal([]string{"Alice"}, tracker.Active())

	name, stopped := tracker.MarkStopped("id-1")
	req.True(stopped)
	req.Equal("Alice", name)
}
