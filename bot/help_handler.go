package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/telegram/message/entity"
	"go.uber.org/zap"
)

// HelpHandler implements CommandHandler for the /help command
type HelpHandler struct {
	messenger *Messenger
	logger    *zap.Logger
}

// NewHelpHandler creates a new HelpHandler instance
func NewHelpHandler(messenger *Messenger, logger *zap.Logger) *HelpHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HelpHandler{
		messenger: messenger,
		logger:    logger,
	}
}

// Command returns the command string this handler processes
func (h *HelpHandler) Command() string {
	return "help"
}

// Handle processes the /help command
func (h *HelpHandler) Handle(ctx context.Context, cmdCtx *CommandContext) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := h.messenger.Send(timeoutCtx, cmdCtx.Peer, HelpText(), nil, 0); err != nil {
		h.logger.Warn("Failed to send help message",
			zap.Int64("chat_id", cmdCtx.ChatID),
			zap.Error(err))
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.Debug("Processed /help command", zap.Int64("user_id", cmdCtx.UserID))
	return nil
}

// HelpText is the welcome text followed by the command list
func HelpText() Text {
	var b entity.Builder
	writeWelcome(&b)
	b.Plain("\n\n")
	b.Bold("🤖 Commands:")
	b.Plain("\n/start - Show the welcome message\n/help - Show this message\n")
	b.Plain("/ping - Check if the bot is responsive\n/queue - Show running and waiting downloads")
	msg, entities := b.Complete()
	return Text{Message: msg, Entities: entities}
}
