// Package ws adapts the relay core to websocket connections: JSON frame
// protocol, per-connection read/write pumps, and the delivery sink.
package ws

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const (
	frameSetUsername    = "set-username"
	frameTyping         = "typing"
	frameStopTyping     = "stop-typing"
	frameGroupMessage   = "group-message"
	framePrivateMessage = "private-message"
)

var validate = validator.New()

// clientFrame is the inbound wire format. Only the fields relevant to
// the declared type are read.
type clientFrame struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	To       string `json:"to"`
	Message  string `json:"message"`
}

type setUsernamePayload struct {
	Username string `validate:"max=32"`
}

type groupMessagePayload struct {
	Message string `validate:"required,max=2000"`
}

type privateMessagePayload struct {
	To      string `validate:"required,uuid4"`
	Message string `validate:"required,max=2000"`
}

// DecodeFrame turns a raw inbound frame into a relay command on behalf
// of the given identity. Anything malformed is rejected here so nothing
// blank or oversized ever reaches the router.
func DecodeFrame(data []byte, from domain.Identity) (domain.Command, error) {
	var frame clientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch frame.Type {
	case frameSetUsername:
		payload := setUsernamePayload{Username: strings.TrimSpace(frame.Username)}
		if err := validate.Struct(payload); err != nil {
			return nil, err
		}
		return domain.SetUsernameCommand{From: from, Username: payload.Username}, nil

	case frameTyping:
		return domain.TypingCommand{From: from}, nil

	case frameStopTyping:
		return domain.StopTypingCommand{From: from}, nil

	case frameGroupMessage:
		if strings.TrimSpace(frame.Message) == "" {
			return nil, errors.ErrBlankMessage
		}
		payload := groupMessagePayload{Message: frame.Message}
		if err := validate.Struct(payload); err != nil {
			return nil, err
		}
		return domain.GroupMessageCommand{From: from, Content: payload.Message}, nil

	case framePrivateMessage:
		if strings.TrimSpace(frame.Message) == "" {
			return nil, errors.ErrBlankMessage
		}
		payload := privateMessagePayload{To: frame.To, Message: frame.Message}
		if err := validate.Struct(payload); err != nil {
			return nil, err
		}
		return domain.PrivateMessageCommand{
			From:    from,
			To:      domain.Identity(payload.To),
			Content: payload.Message,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownFrameType, frame.Type)
	}
}

// serverFrame is the outbound envelope: the event name plus its payload.
type serverFrame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type wireUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type wireMessage struct {
	ID           string `json:"messageId"`
	Type         string `json:"type"`
	From         string `json:"from"`
	FromUsername string `json:"fromUsername"`
	To           string `json:"to,omitempty"`
	Message      string `json:"message"`
	Timestamp    string `json:"timestamp"`
}

type wireInit struct {
	UserID          string        `json:"userId"`
	DefaultUsername string        `json:"defaultUsername"`
	MessageHistory  []wireMessage `json:"messageHistory"`
}

// EncodeEvent serializes a relay event into its outbound frame.
func EncodeEvent(e event.DomainEvent) ([]byte, error) {
	frame := serverFrame{Type: e.Name()}

	switch evt := e.(type) {
	case event.Init:
		frame.Data = wireInit{
			UserID:          string(evt.Identity),
			DefaultUsername: evt.DefaultUsername,
			MessageHistory:  lo.Map(evt.History, toWireMessage),
		}
	case event.UsernameSet:
		frame.Data = evt.Username
	case event.OnlineUsers:
		frame.Data = lo.Map(evt.Users, func(u domain.RosterEntry, _ int) wireUser {
			return wireUser{ID: string(u.ID), Username: u.Username}
		})
	case event.UserTyping:
		frame.Data = evt.Username
	case event.UserStoppedTyping:
		frame.Data = evt.Username
	case event.GroupMessage:
		frame.Data = toWireMessage(evt.Message, 0)
	case event.PrivateMessage:
		frame.Data = toWireMessage(evt.Message, 0)
	default:
		return nil, fmt.Errorf("%w: %T", errors.ErrUnknownFrameType, e)
	}

	return json.Marshal(frame)
}

func toWireMessage(m domain.Message, _ int) wireMessage {
	return wireMessage{
		ID:           m.ID.String(),
		Type:         string(m.Kind),
		From:         string(m.From),
		FromUsername: m.FromUsername,
		To:           string(m.To),
		Message:      m.Content,
		Timestamp:    m.CreatedAt.Format(time.RFC3339Nano),
	}
}
