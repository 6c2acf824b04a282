package bot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StartHandler implements CommandHandler for the /start command
type StartHandler struct {
	messenger *Messenger
	logger    *zap.Logger
}

// NewStartHandler creates a new StartHandler instance
func NewStartHandler(messenger *Messenger, logger *zap.Logger) *StartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StartHandler{
		messenger: messenger,
		logger:    logger,
	}
}

// Command returns the command string this handler processes
func (h *StartHandler) Command() string {
	return "start"
}

// Handle processes the /start command and sends a welcome message
func (h *StartHandler) Handle(ctx context.Context, cmdCtx *CommandContext) error {
	startTime := time.Now()

	h.logger.Debug("Processing /start command",
		zap.Int64("user_id", cmdCtx.UserID),
		zap.Int64("chat_id", cmdCtx.ChatID))

	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := h.messenger.Send(timeoutCtx, cmdCtx.Peer, WelcomeText(), nil, 0); err != nil {
		return fmt.Errorf("failed to send welcome message: %w", err)
	}

	h.logger.Info("Processed /start command",
		zap.Int64("user_id", cmdCtx.UserID),
		zap.Duration("took", time.Since(startTime)))
	return nil
}
