package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/history"
	"chat-relay/moderation"
	"chat-relay/observability"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// captureSink records everything the relay delivers to one connection.
type captureSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *captureSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) byName(name string) []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.DomainEvent
	for _, e := range s.events {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

func (s *captureSink) count(name string) int {
	return len(s.byName(name))
}

func (s *captureSink) last(name string) event.DomainEvent {
	events := s.byName(name)
	if len(events) == 0 {
		return nil
	}
	return events[len(events)-1]
}

type relayFixture struct {
	relay   *Relay
	typing  *TypingTracker
	history *history.Log
	monitor *observability.Monitor
}

func newRelayFixture(t *testing.T) relayFixture {
	t.Helper()

	moderator, err := moderation.NewModerator([]string{"darn"}, '*')
	require.NoError(t, err)

	typing := NewTypingTracker()
	hist := history.NewLog()
	monitor := observability.NewMonitor()
	relay := NewRelay(slog.Default(), NewRegistry(), hist, typing,
		moderator, monitor, 64, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = relay.Run(ctx) }()

	return relayFixture{relay: relay, typing: typing, history: hist, monitor: monitor}
}

func connect(t *testing.T, f relayFixture) (domain.Identity, *captureSink) {
	t.Helper()
	sink := &captureSink{}
	id, err := f.relay.Connect(context.Background(), sink)
	require.NoError(t, err)
	return id, sink
}

func dispatch(t *testing.T, f relayFixture, cmd domain.Command) {
	t.Helper()
	require.NoError(t, f.relay.Dispatch(context.Background(), cmd))
}

func eventually(t *testing.T, condition func() bool) {
	t.Helper()
	require.Eventually(t, condition, 2*time.Second, 10*time.Millisecond)
}

func TestRelay_ConnectDeliversInitAndRoster(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	id, sink := connect(t, f)

	init, ok := sink.last("init").(event.Init)
	req.True(ok)
	req.Equal(id, init.Identity)
	req.NotEmpty(init.DefaultUsername)
	req.Empty(init.History)

	roster, ok := sink.last("online-users").(event.OnlineUsers)
	req.True(ok)
	req.Len(roster.Users, 1)
	req.Equal(id, roster.Users[0].ID)
}

func TestRelay_SetUsernameEchoesAndRebroadcastsRoster(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	idA, sinkA := connect(t, f)
	_, sinkB := connect(t, f)

	dispatch(t, f, domain.SetUsernameCommand{From: idA, Username: "Alice"})

	eventually(t, func() bool { return sinkA.count("username-set") == 1 })
	confirmed := sinkA.last("username-set").(event.UsernameSet)
	req.Equal("Alice", confirmed.Username)

	eventually(t, func() bool {
		roster, ok := sinkB.last("online-users").(event.OnlineUsers)
		if !ok {
			return false
		}
		for _, entry := range roster.Users {
			if entry.ID == idA && entry.Username == "Alice" {
				return true
			}
		}
		return false
	})
}

func TestRelay_SetUsernameBlankKeepsDefault(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	idA, sinkA := connect(t, f)
	defaultName := sinkA.last("init").(event.Init).DefaultUsername

	dispatch(t, f, domain.SetUsernameCommand{From: idA, Username: "   "})

	eventually(t, func() bool { return sinkA.count("username-set") == 1 })
	confirmed := sinkA.last("username-set").(event.UsernameSet)
	req.Equal(defaultName, confirmed.Username)
}

func TestRelay_GroupMessageReachesEveryoneIncludingSender(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	idA, sinkA := connect(t, f)
	_, sinkB := connect(t, f)
	dispatch(t, f, domain.SetUsernameCommand{From: idA, Username: "Alice"})
	eventually(t, func() bool { return sinkA.count("username-set") == 1 })

	dispatch(t, f, domain.GroupMessageCommand{From: idA, Content: "hello all"})

	eventually(t, func() bool {
		return sinkA.count("group-message") == 1 && sinkB.count("group-message") == 1
	})

	msg := sinkB.last("group-message").(event.GroupMessage).Message
	req.Equal(domain.KindGroup, msg.Kind)
	req.Equal("Alice", msg.FromUsername)
	req.Equal("hello all", msg.Content)
	req.Equal(idA, msg.From)
	req.Equal(1, f.history.Len())
}

func TestRelay_PrivateMessageDeliveredToRecipientAndSenderOnly(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	idA, sinkA := connect(t, f)
	idB, sinkB := connect(t, f)
	_, sinkC := connect(t, f)

	dispatch(t, f, domain.PrivateMessageCommand{From: idB, To: idA, Content: "hi Alice"})

	eventually(t, func() bool {
		return sinkA.count("private-message") == 1 && sinkB.count("private-message") == 1
	})
	req.Zero(sinkC.count("private-message"))

	msg := sinkA.last("private-message").(event.PrivateMessage).Message
	req.Equal(domain.KindPrivate, msg.Kind)
	req.Equal(idA, msg.To)
	req.Equal("hi Alice", msg.Content)
	req.Equal(1, f.history.Len())
}

func TestRelay_PrivateMessageToUnknownRecipientStillLoggedAndEchoed(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	idA, sinkA := connect(t, f)

	dispatch(t, f, domain.PrivateMessageCommand{From: idA, To: "gone", Content: "anyone there?"})

	eventually(t, func() bool { return sinkA.count("private-message") == 1 })
	req.Equal(1, f.history.Len())
	req.Equal(domain.KindPrivate, f.history.All()[0].Kind)
}

func TestRelay_HistoryReplayedToLateJoiner(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	idA, _ := connect(t, f)
	dispatch(t, f, domain.GroupMessageCommand{From: idA, Content: "first"})
	dispatch(t, f, domain.GroupMessageCommand{From: idA, Content: "second"})
	dispatch(t, f, domain.PrivateMessageCommand{From: idA, To: "nobody", Content: "third"})
	eventually(t, func() bool { return f.history.Len() == 3 })

	_, sinkB := connect(t, f)
	init := sinkB.last("init").(event.Init)
	req.Len(init.History, 3)
	req.Equal("first", init.History[0].Content)
	req.Equal("second", init.History[1].Content)
	req.Equal("third", init.History[2].Content)
}

func TestRelay_TypingSignalsSkipOriginator(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	idA, sinkA := connect(t, f)
	_, sinkB := connect(t, f)

	dispatch(t, f, domain.TypingCommand{From: idA})
	dispatch(t, f, domain.TypingCommand{From: idA})

	eventually(t, func() bool { return sinkB.count("user-typing") == 2 })
	req.Zero(sinkA.count("user-typing"))
	// Duplicate signals never double-count the tracked state
	req.Len(f.typing.Active(), 1)

	dispatch(t, f, domain.StopTypingCommand{From: idA})
	eventually(t, func() bool { return sinkB.count("user-stopped-typing") == 1 })
	req.Empty(f.typing.Active())
}

func TestRelay_DisconnectClearsTypingAndRoster(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	idA, _ := connect(t, f)
	idB, sinkB := connect(t, f)

	dispatch(t, f, domain.TypingCommand{From: idA})
	eventually(t, func() bool { return sinkB.count("user-typing") == 1 })

	f.relay.Disconnect(idA)

	eventually(t, func() bool { return sinkB.count("user-stopped-typing") == 1 })
	req.Empty(f.typing.Active())

	eventually(t, func() bool {
		roster, ok := sinkB.last("online-users").(event.OnlineUsers)
		return ok && len(roster.Users) == 1 && roster.Users[0].ID == idB
	})

	// Duplicate disconnect is absorbed silently
	f.relay.Disconnect(idA)
	dispatch(t, f, domain.GroupMessageCommand{From: idB, Content: "still here"})
	eventually(t, func() bool { return sinkB.count("group-message") == 1 })
}

func TestRelay_RenameWhileTypingMovesIndicator(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	idA, sinkA := connect(t, f)
	_, sinkB := connect(t, f)
	oldName := sinkA.last("init").(event.Init).DefaultUsername

	dispatch(t, f, domain.TypingCommand{From: idA})
	eventually(t, func() bool { return sinkB.count("user-typing") == 1 })

	dispatch(t, f, domain.SetUsernameCommand{From: idA, Username: "Alice"})

	// The old name is retired before the new one takes over
	eventually(t, func() bool { return sinkB.count("user-stopped-typing") == 1 })
	req.Equal(oldName, sinkB.last("user-stopped-typing").(event.UserStoppedTyping).Username)
	eventually(t, func() bool { return sinkB.count("user-typing") == 2 })
	req.Equal("Alice", sinkB.last("user-typing").(event.UserTyping).Username)
	req.Equal([]string{"Alice"}, f.typing.Active())

	// Disconnecting after the rename still clears the indicator
	f.relay.Disconnect(idA)
	eventually(t, func() bool { return sinkB.count("user-stopped-typing") == 2 })
	req.Equal("Alice", sinkB.last("user-stopped-typing").(event.UserStoppedTyping).Username)
	req.Empty(f.typing.Active())
}

func TestRelay_DisconnectAfterShutdownDoesNotBlock(t *testing.T) {
	req := require.New(t)
	moderator, err := moderation.NewModerator([]string{"darn"}, '*')
	req.NoError(err)
	relay := NewRelay(slog.Default(), NewRegistry(), history.NewLog(),
		NewTypingTracker(), moderator, observability.NewMonitor(), 1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() { _ = relay.Run(ctx); close(runDone) }()
	cancel()
	<-runDone

	done := make(chan struct{})
	go func() {
		// More signals than the task buffer can hold
		for i := 0; i < 4; i++ {
			relay.Disconnect("gone")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Disconnect blocked after the relay loop stopped")
	}
}

func TestRelay_PrivateMessageFromDepartedSenderStillAppended(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	idA, _ := connect(t, f)
	idB, _ := connect(t, f)
	_, sinkC := connect(t, f)

	f.relay.Disconnect(idA)
	f.relay.Disconnect(idB)
	eventually(t, func() bool {
		roster, ok := sinkC.last("online-users").(event.OnlineUsers)
		return ok && len(roster.Users) == 1
	})

	dispatch(t, f, domain.PrivateMessageCommand{From: idA, To: idB, Content: "too late"})

	// History keeps the record; nobody is left to receive a live copy
	eventually(t, func() bool { return f.history.Len() == 1 })
	req.Equal(domain.KindPrivate, f.history.All()[0].Kind)
	req.Zero(sinkC.count("private-message"))
}

func TestRelay_BlankBodiesAreNeverAppended(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	idA, sinkA := connect(t, f)

	dispatch(t, f, domain.GroupMessageCommand{From: idA, Content: "   "})
	dispatch(t, f, domain.PrivateMessageCommand{From: idA, To: idA, Content: "\t\n"})
	dispatch(t, f, domain.GroupMessageCommand{From: idA, Content: "real one"})

	eventually(t, func() bool { return sinkA.count("group-message") == 1 })
	req.Equal(1, f.history.Len())
}

func TestRelay_CensorsBlacklistedWords(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	idA, sinkA := connect(t, f)

	dispatch(t, f, domain.GroupMessageCommand{From: idA, Content: "well darn it"})

	eventually(t, func() bool { return sinkA.count("group-message") == 1 })
	msg := sinkA.last("group-message").(event.GroupMessage).Message
	req.Equal("well **** it", msg.Content)
	// History stores the sanitized body as well
	req.Equal("well **** it", f.history.All()[0].Content)
}

func TestRelay_SenderNameCapturedAtSendTime(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	idA, sinkA := connect(t, f)
	dispatch(t, f, domain.SetUsernameCommand{From: idA, Username: "Alice"})
	eventually(t, func() bool { return sinkA.count("username-set") == 1 })

	dispatch(t, f, domain.GroupMessageCommand{From: idA, Content: "as alice"})
	eventually(t, func() bool { return sinkA.count("group-message") == 1 })

	dispatch(t, f, domain.SetUsernameCommand{From: idA, Username: "Alicia"})
	eventually(t, func() bool { return sinkA.count("username-set") == 2 })

	// The earlier record keeps the name it was sent under
	req.Equal("Alice", f.history.All()[0].FromUsername)
}
