package domain

// Command is an inbound client intent, decoded by the transport layer
// and processed by the relay one at a time.
type Command interface {
	Sender() Identity
}

type SetUsernameCommand struct {
	From     Identity
	Username string
}

func (c SetUsernameCommand) Sender() Identity { return c.From }

type TypingCommand struct {
	From Identity
}

func (c TypingCommand) Sender() Identity { return c.From }

type StopTypingCommand struct {
	From Identity
}

func (c StopTypingCommand) Sender() Identity { return c.From }

type GroupMessageCommand struct {
	From    Identity
	Content string
}

func (c GroupMessageCommand) Sender() Identity { return c.From }

type PrivateMessageCommand struct {
	From    Identity
	To      Identity
	Content string
}

func (c PrivateMessageCommand) Sender() Identity { return c.From }

type DisconnectCommand struct {
	From Identity
}

func (c DisconnectCommand) Sender() Identity { return c.From }
