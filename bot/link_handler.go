package bot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-media-bot/downloader"
)

// LinkHandler answers a media link with a format menu
type LinkHandler struct {
	deps   *Dependencies
	logger *zap.Logger
}

// NewLinkHandler creates a new LinkHandler instance
func NewLinkHandler(deps *Dependencies) (*LinkHandler, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("link handler: %w", err)
	}
	return &LinkHandler{
		deps:   deps,
		logger: deps.Logger.Named("link"),
	}, nil
}

// HandleText implements TextHandler. Messages that mention none of the
// supported services are left to other handlers.
func (h *LinkHandler) HandleText(ctx context.Context, cmdCtx *CommandContext) (bool, error) {
	url := cmdCtx.Text
	service := TriggeredService(url)
	if service == downloader.ServiceUnknown {
		return false, nil
	}

	logger := h.logger.With(
		zap.Int64("chat_id", cmdCtx.ChatID),
		zap.Int("message_id", cmdCtx.MessageID),
		zap.String("service", string(service)))

	if !MatchesService(url, service) {
		logger.Debug("Link mentions service but does not match it", zap.String("text", url))
		return true, h.reply(ctx, cmdCtx, InvalidURLText(service))
	}

	startTime := time.Now()
	info, err := h.fetchMetadata(ctx, url, service)
	if err != nil {
		logger.Warn("Could not get media information", zap.String("url", url), zap.Error(err))
		if downloader.IsDownloadError(err, downloader.ErrorMetadata) {
			return true, h.reply(ctx, cmdCtx, plainText(textMetadataError))
		}
		return true, h.reply(ctx, cmdCtx, plainText(textLinkError))
	}

	menu := Menu{
		URL:             url,
		Service:         service,
		OriginMessageID: cmdCtx.MessageID,
	}
	audioData, videoData := h.menuPayloads(&menu)

	markup := FormatMenuMarkup(service, audioData, videoData)
	menuID, err := h.deps.Messenger.Send(ctx, cmdCtx.Peer, MediaFoundText(service, info), markup, cmdCtx.MessageID)
	if err != nil {
		h.deps.Registry.ForgetLink(menu.Token)
		return true, fmt.Errorf("failed to send format menu: %w", err)
	}
	h.deps.Registry.RegisterMenu(cmdCtx.ChatID, menuID, menu)

	logger.Info("Sent format menu",
		zap.String("title", info.Title),
		zap.Int("duration", info.Duration),
		zap.Int("menu_id", menuID),
		zap.Duration("took", time.Since(startTime)))
	return true, nil
}

// fetchMetadata runs the lookup while holding one of the shared lookup slots
func (h *LinkHandler) fetchMetadata(ctx context.Context, url string, service downloader.Service) (*downloader.MediaInfo, error) {
	if err := h.deps.lookups.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for metadata slot: %w", err)
	}
	defer h.deps.lookups.Release(1)

	return h.deps.Metadata.FetchMetadata(ctx, url, service)
}

// menuPayloads builds the two format button payloads. Links too long for a
// button are replaced with a registry token.
func (h *LinkHandler) menuPayloads(menu *Menu) (audio, video string) {
	audio = EncodeDownloadPayload(menu.Service, downloader.MediaAudio, menu.URL)
	video = EncodeDownloadPayload(menu.Service, downloader.MediaVideo, menu.URL)
	if FitsCallbackData(audio) && FitsCallbackData(video) {
		return audio, video
	}

	menu.Token = h.deps.Registry.StoreLink(menu.URL)
	return EncodeTokenPayload(menu.Service, downloader.MediaAudio, menu.Token),
		EncodeTokenPayload(menu.Service, downloader.MediaVideo, menu.Token)
}

func (h *LinkHandler) reply(ctx context.Context, cmdCtx *CommandContext, text Text) error {
	if _, err := h.deps.Messenger.Send(ctx, cmdCtx.Peer, text, nil, cmdCtx.MessageID); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}
