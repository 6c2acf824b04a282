package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"go-media-bot/downloader"
)

// statusEditTimeout bounds the terminal edits of a request. They run on a
// context detached from cancellation so shutdown still reports the outcome.
const statusEditTimeout = 10 * time.Second

// DownloadCallbackHandler handles the format menu and cancel buttons
type DownloadCallbackHandler struct {
	deps   *Dependencies
	logger *zap.Logger
}

// NewDownloadCallbackHandler creates a new DownloadCallbackHandler instance
func NewDownloadCallbackHandler(deps *Dependencies) (*DownloadCallbackHandler, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("callback handler: %w", err)
	}
	return &DownloadCallbackHandler{
		deps:   deps,
		logger: deps.Logger.Named("callback"),
	}, nil
}

// HandleCallback implements CallbackHandler
func (h *DownloadCallbackHandler) HandleCallback(ctx context.Context, cbCtx *CallbackContext) error {
	payload, err := ParseCallbackData(cbCtx.Data)
	if err != nil {
		h.logger.Warn("Ignoring malformed callback",
			zap.Int64("chat_id", cbCtx.ChatID),
			zap.String("data", cbCtx.Data),
			zap.Error(err))
		return h.deps.Messenger.AnswerCallback(ctx, cbCtx.QueryID, "", false)
	}

	switch payload.Action {
	case ActionCancelMenu:
		return h.cancelMenu(ctx, cbCtx)
	case ActionCancelDownload:
		return h.cancelDownload(ctx, cbCtx)
	default:
		return h.startDownload(ctx, cbCtx, payload)
	}
}

// cancelMenu deletes the format menu
func (h *DownloadCallbackHandler) cancelMenu(ctx context.Context, cbCtx *CallbackContext) error {
	if err := h.deps.Messenger.AnswerCallback(ctx, cbCtx.QueryID, "", false); err != nil {
		h.logger.Debug("Failed to answer cancel callback", zap.Error(err))
	}
	h.deps.Registry.RemoveMenu(cbCtx.ChatID, cbCtx.MessageID)
	return h.deps.Messenger.Delete(ctx, cbCtx.Peer, cbCtx.MessageID)
}

// cancelDownload flags the request attached to the status message. A running
// transfer reports its own outcome; a queued one is closed here.
func (h *DownloadCallbackHandler) cancelDownload(ctx context.Context, cbCtx *CallbackContext) error {
	req, ok := h.deps.Registry.Active(cbCtx.ChatID, cbCtx.MessageID)
	if !ok {
		return h.deps.Messenger.AnswerCallback(ctx, cbCtx.QueryID, textAlreadyCancelled, true)
	}

	started, ok := req.Cancel()
	if !ok {
		return h.deps.Messenger.AnswerCallback(ctx, cbCtx.QueryID, textAlreadyCancelled, true)
	}

	h.logger.Info("Download cancelled by user",
		zap.String("request_id", req.ID),
		zap.Int64("user_id", cbCtx.UserID),
		zap.Bool("started", started))

	if err := h.deps.Messenger.AnswerCallback(ctx, cbCtx.QueryID, textCancelAlert, true); err != nil {
		h.logger.Debug("Failed to answer cancel callback", zap.Error(err))
	}

	if !started {
		h.deps.Queue.Cancel(req.ID)
		h.finalEdit(req, plainText(textCancelled))
		h.deps.Registry.Finish(req)
	}
	return nil
}

// startDownload turns a format button press into a queued request
func (h *DownloadCallbackHandler) startDownload(ctx context.Context, cbCtx *CallbackContext, payload CallbackPayload) error {
	menu, hasMenu := h.deps.Registry.Menu(cbCtx.ChatID, cbCtx.MessageID)

	url := payload.URL
	if payload.Token != "" {
		resolved, ok := h.deps.Registry.ResolveLink(payload.Token)
		if !ok {
			return h.deps.Messenger.AnswerCallback(ctx, cbCtx.QueryID, textRequestExpired, true)
		}
		url = resolved
	}
	if !hasMenu {
		// The menu predates this process; the original message is unknown.
		menu = Menu{}
	}
	menu.URL = url
	menu.Service = payload.Service

	req := NewRequest(cbCtx.ChatID, cbCtx.MessageID, menu, payload.Kind)
	req.UserID = cbCtx.UserID
	req.Peer = cbCtx.Peer
	if err := req.Transition(StateFormatChosen); err != nil {
		return err
	}

	if err := h.deps.Registry.Begin(req); err != nil {
		h.logger.Debug("Duplicate format selection", zap.String("request_id", req.ID))
		return h.deps.Messenger.AnswerCallback(ctx, cbCtx.QueryID, textAlreadyRunning, false)
	}

	if err := h.deps.Messenger.AnswerCallback(ctx, cbCtx.QueryID, "", false); err != nil {
		h.logger.Debug("Failed to answer download callback", zap.Error(err))
	}

	logger := h.requestLogger(req)
	logger.Info("Format chosen")

	if err := h.deps.Messenger.Edit(ctx, req.Peer, req.StatusMessageID,
		DownloadingText(req.Kind, req.Service, 0), CancelDownloadMarkup()); err != nil {
		logger.Warn("Failed to show download status", zap.Error(err))
	}

	queued := &QueueRequest{
		UniqueID:  req.ID,
		UserID:    req.UserID,
		ChatID:    req.ChatID,
		MessageID: req.StatusMessageID,
		URL:       req.URL,
		Service:   req.Service,
		Kind:      req.Kind,
		OnAbandon: func(err error) {
			h.abandon(req, err)
		},
	}
	err := h.deps.Queue.Submit(h.deps.Context, queued, func(ctx context.Context) error {
		return h.runDownload(ctx, req)
	})
	if err == nil {
		return nil
	}

	_ = req.Transition(StateFailed)
	text := textProcessingError
	if errors.Is(err, ErrQueueFull) {
		text = textQueueFull
		logger.Warn("Download queue is full", zap.Int("capacity", h.deps.Queue.Capacity()))
	} else {
		logger.Error("Failed to queue download", zap.Error(err))
	}
	h.finalEdit(req, plainText(text))
	h.deps.Registry.Finish(req)
	return nil
}

// runDownload drives one request from the queue slot to its terminal edit
func (h *DownloadCallbackHandler) runDownload(ctx context.Context, req *Request) error {
	defer h.deps.Registry.Finish(req)
	logger := h.requestLogger(req)

	if !req.Start() {
		logger.Info("Request cancelled before it started")
		return downloader.NewDownloadError(downloader.ErrorCancelled, "cancelled while queued")
	}

	reporter := downloader.NewTelegramProgressReporter(h.deps.Messenger.API(), req.Peer,
		req.StatusMessageID, req.Kind, CancelDownloadMarkup())

	result, err := h.deps.Downloader.Download(ctx, req.DownloadRequest(), req.Status, reporter)
	if err != nil {
		h.reportFailure(req, err)
		return err
	}
	defer h.removeFile(logger, result.FilePath)

	if !req.BeginUpload() {
		_ = req.Transition(StateCancelled)
		h.finalEdit(req, plainText(textCancelled))
		return downloader.NewDownloadError(downloader.ErrorCancelled, "cancelled after download")
	}

	if err := h.deps.Messenger.Edit(ctx, req.Peer, req.StatusMessageID, UploadingText(req.Kind), nil); err != nil {
		logger.Warn("Failed to show upload status", zap.Error(err))
	}

	startTime := time.Now()
	if err := h.deps.Messenger.SendFile(ctx, req.Peer, h.mediaUpload(logger, result), req.OriginMessageID); err != nil {
		logger.Error("Upload failed", zap.String("path", result.FilePath), zap.Error(err))
		_ = req.Transition(StateFailed)
		h.finalEdit(req, plainText(textProcessingError))
		return downloader.NewDownloadErrorWithCause(downloader.ErrorUploadFailed, "failed to send media", err)
	}

	_ = req.Transition(StateDone)
	h.finalEdit(req, SentText(req.Kind))
	logger.Info("Media sent",
		zap.String("path", result.FilePath),
		zap.Int64("size", result.FileSize),
		zap.Duration("upload_took", time.Since(startTime)))
	return nil
}

// abandon closes a request that never got a download slot
func (h *DownloadCallbackHandler) abandon(req *Request, err error) {
	// A user cancel that raced shutdown has already rendered its outcome.
	if req.Transition(StateFailed) != nil {
		return
	}
	h.requestLogger(req).Warn("Download abandoned before it started", zap.Error(err))
	h.finalEdit(req, plainText(textProcessingError))
	h.deps.Registry.Finish(req)
}

// reportFailure maps a download error to the request's final status text
func (h *DownloadCallbackHandler) reportFailure(req *Request, err error) {
	logger := h.requestLogger(req)

	var text Text
	switch {
	case downloader.IsCancelled(err):
		_ = req.Transition(StateCancelled)
		logger.Info("Download cancelled")
		text = plainText(textCancelled)
	case downloader.IsDownloadError(err, downloader.ErrorAborted):
		_ = req.Transition(StateFailed)
		logger.Warn("Download aborted", zap.Error(err))
		text = plainText(textProcessingError)
	case downloader.IsDownloadError(err, downloader.ErrorFileTooLarge):
		_ = req.Transition(StateFailed)
		logger.Warn("Downloaded file exceeds upload limit", zap.Error(err))
		text = TooLargeText(req.Kind, h.deps.MaxFileSize)
	case downloader.IsDownloadError(err, downloader.ErrorDownloadFailed):
		_ = req.Transition(StateFailed)
		logger.Warn("Download failed", zap.Error(err))
		text = DownloadFailedText(req.Kind)
	default:
		_ = req.Transition(StateFailed)
		logger.Error("Download processing failed", zap.Error(err))
		text = plainText(textProcessingError)
	}
	h.finalEdit(req, text)
}

// mediaUpload describes the downloaded file for the chat. Missing video
// attributes are not an error; the file is then sent without dimensions.
func (h *DownloadCallbackHandler) mediaUpload(logger *zap.Logger, result *downloader.DownloadResult) MediaUpload {
	if result.Kind == downloader.MediaAudio {
		return MediaUpload{
			Path:     result.FilePath,
			MimeType: "audio/mpeg",
			Attributes: []tg.DocumentAttributeClass{
				&tg.DocumentAttributeAudio{
					Duration: result.Info.Duration,
					Title:    result.Info.Title,
				},
			},
		}
	}

	video := &tg.DocumentAttributeVideo{
		SupportsStreaming: true,
		Duration:          float64(result.Info.Duration),
	}
	if probed, err := downloader.ProbeVideo(result.FilePath); err != nil {
		logger.Debug("Could not probe video", zap.String("path", result.FilePath), zap.Error(err))
	} else {
		video.W = probed.Width
		video.H = probed.Height
		if probed.Duration > 0 {
			video.Duration = float64(probed.Duration)
		}
	}

	return MediaUpload{
		Path:       result.FilePath,
		MimeType:   "video/mp4",
		Attributes: []tg.DocumentAttributeClass{video},
	}
}

// finalEdit replaces the status message and removes its keyboard
func (h *DownloadCallbackHandler) finalEdit(req *Request, text Text) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(h.deps.Context), statusEditTimeout)
	defer cancel()

	if err := h.deps.Messenger.Edit(ctx, req.Peer, req.StatusMessageID, text, nil); err != nil {
		h.requestLogger(req).Warn("Failed to edit status message", zap.Error(err))
	}
}

func (h *DownloadCallbackHandler) removeFile(logger *zap.Logger, path string) {
	if err := downloader.RemoveFile(path); err != nil {
		logger.Warn("Failed to remove downloaded file", zap.String("path", path), zap.Error(err))
	}
}

func (h *DownloadCallbackHandler) requestLogger(req *Request) *zap.Logger {
	return h.logger.With(
		zap.String("request_id", req.ID),
		zap.String("service", string(req.Service)),
		zap.String("kind", string(req.Kind)))
}
