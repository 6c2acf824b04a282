package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gotd/td/telegram/message/entity"
	"github.com/gotd/td/tg"
)

const editTimeout = 5 * time.Second

// MessageEditor defines the Telegram API operation needed by the progress reporter
type MessageEditor interface {
	MessagesEditMessage(ctx context.Context, request *tg.MessagesEditMessageRequest) (tg.UpdatesClass, error)
}

// TelegramProgressReporter implements ProgressReporter by editing a single
// status message in place
type TelegramProgressReporter struct {
	api       MessageEditor
	peer      tg.InputPeerClass
	messageID int
	kind      MediaKind
	markup    tg.ReplyMarkupClass

	mu       sync.RWMutex
	isActive bool
}

// NewTelegramProgressReporter creates a reporter editing messageID in peer.
// markup is attached to every edit (typically the cancel button).
func NewTelegramProgressReporter(api MessageEditor, peer tg.InputPeerClass, messageID int, kind MediaKind, markup tg.ReplyMarkupClass) *TelegramProgressReporter {
	return &TelegramProgressReporter{
		api:       api,
		peer:      peer,
		messageID: messageID,
		kind:      kind,
		markup:    markup,
		isActive:  true,
	}
}

// UpdateProgress implements ProgressReporter
func (tpr *TelegramProgressReporter) UpdateProgress(phase Phase, progress Progress) error {
	tpr.mu.RLock()
	active := tpr.isActive
	tpr.mu.RUnlock()
	if !active {
		return nil
	}

	var text string
	var entities []tg.MessageEntityClass
	switch phase {
	case PhaseDownloading:
		text, entities = ProgressMessage(tpr.kind, ServiceUnknown, progress.Percentage)
	case PhaseConverting:
		text, entities = ConvertingMessage(tpr.kind)
	default:
		// Terminal phases are rendered by the request handler.
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), editTimeout)
	defer cancel()

	return tpr.editMessage(ctx, text, entities)
}

// Stop implements ProgressReporter
func (tpr *TelegramProgressReporter) Stop() {
	tpr.mu.Lock()
	defer tpr.mu.Unlock()
	tpr.isActive = false
}

// IsActive returns whether the reporter still edits the status message
func (tpr *TelegramProgressReporter) IsActive() bool {
	tpr.mu.RLock()
	defer tpr.mu.RUnlock()
	return tpr.isActive
}

// editMessage edits the status message
func (tpr *TelegramProgressReporter) editMessage(ctx context.Context, text string, entities []tg.MessageEntityClass) error {
	if tpr.api == nil {
		return NewDownloadError(ErrorUnknown, "telegram API is not initialized")
	}

	request := &tg.MessagesEditMessageRequest{
		Peer:     tpr.peer,
		ID:       tpr.messageID,
		Message:  text,
		Entities: entities,
	}
	if tpr.markup != nil {
		request.ReplyMarkup = tpr.markup
	}

	_, err := tpr.api.MessagesEditMessage(ctx, request)
	return err
}

// ProgressMessage renders the downloading status text. The first status of a
// request names the service; throttled updates pass ServiceUnknown.
func ProgressMessage(kind MediaKind, service Service, percentage float64) (string, []tg.MessageEntityClass) {
	header := fmt.Sprintf("⏳ Downloading %s...", kind)
	if service != ServiceUnknown {
		header = fmt.Sprintf("⏳ Downloading %s from %s...", kind, service.DisplayName())
	}

	var b entity.Builder
	b.Bold(header)
	b.Plain("\n\n")
	b.Plain(RenderProgressBar(percentage, DefaultBarLength))
	return b.Complete()
}

// ConvertingMessage renders the post-processing status text
func ConvertingMessage(kind MediaKind) (string, []tg.MessageEntityClass) {
	var b entity.Builder
	b.Bold(fmt.Sprintf("🔄 Converting %s...", kind))
	return b.Complete()
}
