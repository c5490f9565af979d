package event

import (
	"chat-relay/domain"
)

// DomainEvent is anything the relay pushes to connected clients.
// Name returns the wire-level event type.
type DomainEvent interface {
	Name() string
}

// Init is sent once to a freshly connected client. History is the full
// message log snapshot at connect time, in append order.
type Init struct {
	Identity        domain.Identity
	DefaultUsername string
	History         []domain.Message
}

func (Init) Name() string { return "init" }

// UsernameSet echoes the effective display name after a set-username
// exchange, confirmed or kept.
type UsernameSet struct {
	Username string
}

func (UsernameSet) Name() string { return "username-set" }

// OnlineUsers carries the full roster snapshot, never a diff.
type OnlineUsers struct {
	Users []domain.RosterEntry
}

func (OnlineUsers) Name() string { return "online-users" }

type UserTyping struct {
	Username string
}

func (UserTyping) Name() string { return "user-typing" }

type UserStoppedTyping struct {
	Username string
}

func (UserStoppedTyping) Name() string { return "user-stopped-typing" }

type GroupMessage struct {
	Message domain.Message
}

func (GroupMessage) Name() string { return "group-message" }

type PrivateMessage struct {
	Message domain.Message
}

func (PrivateMessage) Name() string { return "private-message" }
