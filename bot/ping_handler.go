package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/telegram/message/entity"
	"go.uber.org/zap"
)

// PingHandler implements CommandHandler for the /ping command
type PingHandler struct {
	messenger *Messenger
	logger    *zap.Logger
}

// NewPingHandler creates a new PingHandler instance
func NewPingHandler(messenger *Messenger, logger *zap.Logger) *PingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PingHandler{
		messenger: messenger,
		logger:    logger,
	}
}

// Command returns the command string this handler processes
func (h *PingHandler) Command() string {
	return "ping"
}

// Handle processes the /ping command and sends a pong response with timestamp and latency
func (h *PingHandler) Handle(ctx context.Context, cmdCtx *CommandContext) error {
	startTime := time.Now()

	// Short timeout for an immediate response
	timeoutCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	commandLatency := startTime.Sub(cmdCtx.Timestamp)

	if _, err := h.messenger.Send(timeoutCtx, cmdCtx.Peer, h.createPongMessage(startTime, commandLatency), nil, cmdCtx.MessageID); err != nil {
		return fmt.Errorf("failed to send pong message: %w", err)
	}

	h.logger.Info("Processed /ping command",
		zap.Int64("user_id", cmdCtx.UserID),
		zap.Duration("response_time", time.Since(startTime)),
		zap.Duration("command_latency", commandLatency))
	return nil
}

// createPongMessage creates a pong response with timestamp and latency information
func (h *PingHandler) createPongMessage(responseTime time.Time, commandLatency time.Duration) Text {
	var b entity.Builder
	b.Bold("🏓 Pong!")
	b.Plain("\n\n")
	b.Bold("📅 Timestamp:")
	b.Plain(" " + responseTime.Format("2006-01-02 15:04:05 MST") + "\n")
	b.Bold("⚡ Command Latency:")
	b.Plain(fmt.Sprintf(" %v\n", commandLatency.Round(time.Millisecond)))
	b.Bold("✅ Status:")
	b.Plain(" Bot is responsive and operational")
	msg, entities := b.Complete()
	return Text{Message: msg, Entities: entities}
}
