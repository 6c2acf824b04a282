package downloader

import (
	"context"

	"go.uber.org/zap"
)

// MetadataFetcher looks up media metadata without downloading anything
type MetadataFetcher struct {
	engine Engine
	logger *zap.Logger
}

// NewMetadataFetcher creates a new MetadataFetcher
func NewMetadataFetcher(engine Engine, logger *zap.Logger) *MetadataFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetadataFetcher{
		engine: engine,
		logger: logger,
	}
}

// FetchMetadata implements MetadataSource. Errors are never retried.
func (f *MetadataFetcher) FetchMetadata(ctx context.Context, url string, service Service) (*MediaInfo, error) {
	info, err := f.engine.ExtractInfo(ctx, url, MetadataOptions(service))
	if err != nil {
		f.logger.Warn("metadata fetch failed",
			zap.String("url", url),
			zap.String("service", string(service)),
			zap.Error(err))
		return nil, NewDownloadErrorWithCause(ErrorMetadata, "could not get media information", err).
			WithContext("url", url)
	}
	if info == nil {
		return nil, NewDownloadError(ErrorMetadata, "engine returned no information").WithContext("url", url)
	}

	title := info.Title
	if title == "" {
		title = defaultTitle(service)
	}

	return &MediaInfo{
		ID:       info.ID,
		Title:    title,
		Duration: int(info.Duration),
	}, nil
}

func defaultTitle(service Service) string {
	switch service {
	case ServiceVK:
		return "VK Video"
	case ServiceTikTok:
		return "TikTok Video"
	default:
		return "Unknown title"
	}
}
