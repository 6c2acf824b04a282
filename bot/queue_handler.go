package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/telegram/message/entity"
	"go.uber.org/zap"
)

// QueueHandler implements CommandHandler for the /queue command
type QueueHandler struct {
	messenger *Messenger
	queue     *DownloadQueue
	logger    *zap.Logger
}

// NewQueueHandler creates a new QueueHandler instance
func NewQueueHandler(messenger *Messenger, queue *DownloadQueue, logger *zap.Logger) *QueueHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueHandler{
		messenger: messenger,
		queue:     queue,
		logger:    logger,
	}
}

// Command returns the command string this handler processes
func (h *QueueHandler) Command() string {
	return "queue"
}

// Handle processes the /queue command and shows current queue status
func (h *QueueHandler) Handle(ctx context.Context, cmdCtx *CommandContext) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if h.queue == nil {
		_, err := h.messenger.Send(timeoutCtx, cmdCtx.Peer, plainText("❌ Queue system is not available."), nil, 0)
		return err
	}

	message := h.createQueueStatusMessage(time.Now())
	if _, err := h.messenger.Send(timeoutCtx, cmdCtx.Peer, message, nil, cmdCtx.MessageID); err != nil {
		return fmt.Errorf("failed to send queue status: %w", err)
	}

	h.logger.Debug("Processed /queue command", zap.Int64("user_id", cmdCtx.UserID))
	return nil
}

// createQueueStatusMessage renders running and waiting downloads
func (h *QueueHandler) createQueueStatusMessage(now time.Time) Text {
	info := h.queue.GetQueueInfo()

	var running, waiting []QueueRequest
	for _, request := range info {
		if request.Status == StatusProcessing {
			running = append(running, request)
		} else {
			waiting = append(waiting, request)
		}
	}

	var b entity.Builder
	b.Bold("📊 Download Queue Status")
	b.Plain("\n\n")
	b.Bold("Capacity:")
	b.Plain(fmt.Sprintf(" %d/%d requests (%d parallel)\n\n", len(info), h.queue.Capacity(), h.queue.MaxParallel()))

	if len(running) == 0 {
		b.Bold("⏳ Downloading:")
		b.Plain(" None\n\n")
	} else {
		b.Bold(fmt.Sprintf("⏳ Downloading (%d):", len(running)))
		b.Plain("\n")
		for _, request := range running {
			b.Plain(fmt.Sprintf("• %s %s for user %d (running %s)\n",
				request.Service.DisplayName(), request.Kind, request.UserID,
				now.Sub(request.StartTime).Round(time.Second)))
		}
		b.Plain("\n")
	}

	if len(waiting) == 0 {
		b.Bold("📋 Queue:")
		b.Plain(" Empty")
	} else {
		b.Bold(fmt.Sprintf("📋 Waiting (%d):", len(waiting)))
		b.Plain("\n")
		for i, request := range waiting {
			b.Plain(fmt.Sprintf("%d. %s %s for user %d (requested %s ago)\n",
				i+1, request.Service.DisplayName(), request.Kind, request.UserID,
				now.Sub(request.RequestTime).Round(time.Second)))
		}
	}

	msg, entities := b.Complete()
	return Text{Message: msg, Entities: entities}
}
