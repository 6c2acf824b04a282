package bot

import (
	"context"
	"time"

	"github.com/gotd/td/tg"
)

// CommandHandler defines the interface for handling bot commands
type CommandHandler interface {
	// Handle processes a command with the given context
	Handle(ctx context.Context, cmdCtx *CommandContext) error
	// Command returns the command string this handler processes (e.g., "start", "ping")
	Command() string
}

// TextHandler handles plain messages that are not commands. handled is false
// when the message was of no interest to the handler.
type TextHandler interface {
	HandleText(ctx context.Context, cmdCtx *CommandContext) (handled bool, err error)
}

// CallbackHandler handles inline keyboard presses
type CallbackHandler interface {
	HandleCallback(ctx context.Context, cbCtx *CallbackContext) error
}

// CommandContext provides context information for message processing
type CommandContext struct {
	// Peer addresses the chat the message came from
	Peer tg.InputPeerClass
	// UserID is the ID of the user who sent the message
	UserID int64
	// ChatID is the ID of the chat where the message was sent
	ChatID int64
	// MessageID is the ID of the incoming message
	MessageID int
	// Text is the full message text
	Text string
	// Command is the command string without the leading slash and bot mention
	Command string
	// Args contains command arguments (text after the command)
	Args string
	// Timestamp is when the message was received
	Timestamp time.Time
}

// IsCommand reports whether the message is a slash command
func (c *CommandContext) IsCommand() bool {
	return c.Command != ""
}

// CallbackContext describes a pressed inline button
type CallbackContext struct {
	QueryID int64
	// Peer addresses the chat of the message carrying the keyboard
	Peer   tg.InputPeerClass
	UserID int64
	ChatID int64
	// MessageID is the message carrying the keyboard
	MessageID int
	Data      string
	Timestamp time.Time
}
