package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/history"
	"chat-relay/moderation"
	"chat-relay/observability"
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
)

// task wraps one inbound command for the relay loop. The sink and reply
// fields are only set by Connect.
type task struct {
	cmd   domain.Command
	sink  contract.EventSink
	reply chan domain.Identity
}

// connectCommand is the internal command behind Connect; it has no
// sender because the identity does not exist yet.
type connectCommand struct{}

func (connectCommand) Sender() domain.Identity { return "" }

// Relay is the session, presence and routing core. Every mutation of
// the registry, the message log and the typing tracker goes through a
// single goroutine consuming the task channel, so each command's full
// effect (state change + log append + fan-out) is one indivisible step.
// Delivery to individual sinks is bounded by sinkTimeout: a slow client
// loses events, the relay never blocks on it.
type Relay struct {
	log         *slog.Logger
	registry    *Registry
	history     *history.Log
	typing      *TypingTracker
	moderator   moderation.Moderator
	monitor     *observability.Monitor
	tasks       chan task
	sinkTimeout time.Duration
	stopped     chan struct{}
	stopOnce    sync.Once
}

func NewRelay(log *slog.Logger, registry *Registry, hist *history.Log,
	typing *TypingTracker, moderator moderation.Moderator,
	monitor *observability.Monitor, bufferSize int, sinkTimeout time.Duration) *Relay {
	return &Relay{
		log:         log,
		registry:    registry,
		history:     hist,
		typing:      typing,
		moderator:   moderator,
		monitor:     monitor,
		tasks:       make(chan task, bufferSize),
		sinkTimeout: sinkTimeout,
		stopped:     make(chan struct{}),
	}
}

// Run consumes tasks until the context is canceled. It implements
// contract.Worker and is meant to live under the supervisor: state is
// held outside the goroutine, so a restart after a panic loses at most
// the command being processed.
func (r *Relay) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("Stopping relay loop")
			r.markStopped()
			return ctx.Err()
		case t, ok := <-r.tasks:
			if !ok {
				r.markStopped()
				return nil
			}
			r.handle(ctx, t)
		}
	}
}

// markStopped flags the relay as permanently stopped. A panic restart
// under the supervisor never reaches this, only a deliberate shutdown.
func (r *Relay) markStopped() {
	r.stopOnce.Do(func() { close(r.stopped) })
}

// Connect registers a new connection and blocks until the relay has
// processed it: the returned identity is live, the init event has been
// queued on the sink, and the roster rebroadcast has happened.
func (r *Relay) Connect(ctx context.Context, sink contract.EventSink) (domain.Identity, error) {
	reply := make(chan domain.Identity, 1)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r.tasks <- task{cmd: connectCommand{}, sink: sink, reply: reply}:
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case id := <-reply:
		return id, nil
	}
}

// Dispatch queues a decoded client command for processing.
func (r *Relay) Dispatch(ctx context.Context, cmd domain.Command) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r.tasks <- task{cmd: cmd}:
		return nil
	}
}

// Disconnect tears down an identity. Duplicate calls are harmless: the
// second one resolves nothing and becomes a no-op. Once the relay loop
// has shut down the signal is dropped, so a lingering connection's
// deferred teardown cannot block on a full task buffer.
func (r *Relay) Disconnect(id domain.Identity) {
	select {
	case r.tasks <- task{cmd: domain.DisconnectCommand{From: id}}:
	case <-r.stopped:
	}
}

func (r *Relay) handle(ctx context.Context, t task) {
	switch cmd := t.cmd.(type) {
	case connectCommand:
		r.handleConnect(ctx, t)
	case domain.SetUsernameCommand:
		r.handleSetUsername(ctx, cmd)
	case domain.TypingCommand:
		r.handleTyping(ctx, cmd.From, true)
	case domain.StopTypingCommand:
		r.handleTyping(ctx, cmd.From, false)
	case domain.GroupMessageCommand:
		r.routeGroup(ctx, cmd)
	case domain.PrivateMessageCommand:
		r.routePrivate(ctx, cmd)
	case domain.DisconnectCommand:
		r.handleDisconnect(ctx, cmd)
	default:
		r.log.Warn("Unhandled command", "command", cmd)
	}
}

func (r *Relay) handleConnect(ctx context.Context, t task) {
	id, username := r.registry.Register(t.sink)
	r.monitor.IncrConnections()
	r.log.Info("Client connected", "identity", string(id), "username", username)

	// Late joiners get the full history inside init, before any event
	// produced by subsequent commands.
	r.deliver(ctx, t.sink, event.Init{
		Identity:        id,
		DefaultUsername: username,
		History:         r.history.All(),
	})
	r.broadcastRoster(ctx)
	t.reply <- id
}

func (r *Relay) handleSetUsername(ctx context.Context, cmd domain.SetUsernameCommand) {
	username, ok := r.registry.SetUsername(cmd.From, strings.TrimSpace(cmd.Username))
	if !ok {
		return
	}
	r.log.Info("Username confirmed", "identity", string(cmd.From), "username", username)

	if sink, found := r.registry.Sink(cmd.From); found {
		r.deliver(ctx, sink, event.UsernameSet{Username: username})
	}

	// An active typing indicator follows the rename: the old name is
	// retired on every other screen before the new one takes over.
	if previous, wasTyping := r.typing.Rename(cmd.From, username); wasTyping && previous != username {
		r.broadcast(ctx, r.registry.Sinks(cmd.From), event.UserStoppedTyping{Username: previous})
		r.broadcast(ctx, r.registry.Sinks(cmd.From), event.UserTyping{Username: username})
	}
	r.broadcastRoster(ctx)
}

// handleTyping relays a typing transition to everyone but the
// originator. The signal is rebroadcast even when the state did not
// change; downstream consumers are idempotent on duplicates. Tracking
// is keyed by identity so renames and disconnects always find the
// entry, whatever name it was announced under.
func (r *Relay) handleTyping(ctx context.Context, from domain.Identity, typing bool) {
	username, ok := r.registry.Resolve(from)
	if !ok {
		return
	}

	if typing {
		r.typing.MarkTyping(from, username)
		r.broadcast(ctx, r.registry.Sinks(from), event.UserTyping{Username: username})
		return
	}

	name, wasTyping := r.typing.MarkStopped(from)
	if !wasTyping {
		name = username
	}
	r.broadcast(ctx, r.registry.Sinks(from), event.UserStoppedTyping{Username: name})
}

// routeGroup appends one record to the log and delivers it to every
// connection, the sender included, so its own view needs no local echo.
func (r *Relay) routeGroup(ctx context.Context, cmd domain.GroupMessageCommand) {
	if moderation.Blank(cmd.Content) {
		r.log.Debug("Dropping blank group message", "identity", string(cmd.From))
		return
	}

	// A departed sender still gets its record appended; the name field
	// keeps whatever resolved, possibly nothing.
	username, _ := r.registry.Resolve(cmd.From)
	msg := domain.NewGroupMessage(cmd.From, username, r.censor(cmd.From, cmd.Content))
	r.history.Append(msg)
	r.monitor.IncrMessagesRouted()
	r.broadcast(ctx, r.registry.Sinks(), event.GroupMessage{Message: msg})
}

// routePrivate appends the record whether or not the recipient is still
// connected; history keeps it either way. Live delivery goes to the
// recipient when registered, plus the sender's own echo. An unknown
// recipient is a silent no-op, not an error.
func (r *Relay) routePrivate(ctx context.Context, cmd domain.PrivateMessageCommand) {
	if moderation.Blank(cmd.Content) {
		r.log.Debug("Dropping blank private message", "identity", string(cmd.From))
		return
	}

	username, _ := r.registry.Resolve(cmd.From)
	msg := domain.NewPrivateMessage(cmd.From, username, cmd.To, r.censor(cmd.From, cmd.Content))
	r.history.Append(msg)
	r.monitor.IncrMessagesRouted()

	evt := event.PrivateMessage{Message: msg}
	if sink, found := r.registry.Sink(cmd.To); found {
		r.deliver(ctx, sink, evt)
	}
	if sink, found := r.registry.Sink(cmd.From); found {
		r.deliver(ctx, sink, evt)
	}
}

// handleDisconnect forces a typing -> idle transition before dropping
// the identity, so no roster-less name stays stuck as "typing" forever.
func (r *Relay) handleDisconnect(ctx context.Context, cmd domain.DisconnectCommand) {
	username, ok := r.registry.Resolve(cmd.From)
	if !ok {
		// Duplicate disconnect
		return
	}

	if name, wasTyping := r.typing.MarkStopped(cmd.From); wasTyping {
		r.broadcast(ctx, r.registry.Sinks(cmd.From), event.UserStoppedTyping{Username: name})
	}

	r.registry.Unregister(cmd.From)
	r.monitor.DecrConnections()
	r.log.Info("Client disconnected", "identity", string(cmd.From), "username", username)
	r.broadcastRoster(ctx)
}

func (r *Relay) broadcastRoster(ctx context.Context) {
	r.broadcast(ctx, r.registry.Sinks(), event.OnlineUsers{Users: r.registry.Snapshot()})
}

func (r *Relay) broadcast(ctx context.Context, sinks []contract.EventSink, evt event.DomainEvent) {
	for _, sink := range sinks {
		r.deliver(ctx, sink, evt)
	}
}

func (r *Relay) deliver(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	deliveryCtx, cancel := context.WithTimeout(ctx, r.sinkTimeout)
	defer cancel()

	if err := sink.Consume(deliveryCtx, evt); err != nil {
		r.monitor.IncrDroppedDeliveries()
		r.log.Warn("Delivery dropped", "event", evt.Name(), "error", err)
	}
}

// censor masks blacklisted words and logs an audit line with the
// detected language of the offending content.
func (r *Relay) censor(from domain.Identity, content string) string {
	sanitized, found := r.moderator.Censor(content)
	if len(found) > 0 {
		info := whatlanggo.Detect(content)
		r.monitor.IncrCensoredHits(uint64(len(found)))
		r.log.Warn("Censored message content",
			"author", string(from),
			"lang", info.Lang.Iso6391(),
			"words", len(found))
	}
	return sanitized
}
