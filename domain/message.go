// Package domain contains core concepts of the relay.
// This file defines Message records and related rules.
// Messages are immutable once built.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	KindGroup   MessageKind = "group"
	KindPrivate MessageKind = "private"
)

// Message is one immutable entry of the global message log.
// FromUsername is captured at send time: a later rename never rewrites
// history.
type Message struct {
	ID           uuid.UUID
	Kind         MessageKind
	From         Identity
	FromUsername string
	To           Identity // set for KindPrivate only
	Content      string
	CreatedAt    time.Time
}

// NewGroupMessage builds a group message stamped with the current UTC time.
func NewGroupMessage(from Identity, fromUsername, content string) Message {
	return Message{
		ID:           uuid.New(),
		Kind:         KindGroup,
		From:         from,
		FromUsername: fromUsername,
		Content:      content,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewPrivateMessage builds a private message addressed to a single identity.
// The recipient does not need to be connected: the record is valid either way.
func NewPrivateMessage(from Identity, fromUsername string, to Identity, content string) Message {
	return Message{
		ID:           uuid.New(),
		Kind:         KindPrivate,
		From:         from,
		FromUsername: fromUsername,
		To:           to,
		Content:      content,
		CreatedAt:    time.Now().UTC(),
	}
}
