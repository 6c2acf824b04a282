package bot

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"go-media-bot/downloader"
)

// defaultMetadataLookups bounds concurrent metadata lookups
const defaultMetadataLookups = 4

// Dependencies holds everything the link and callback handlers share.
// It is built once in main and passed to handlers explicitly.
type Dependencies struct {
	Messenger  *Messenger
	Downloader downloader.Downloader
	Metadata   downloader.MetadataSource
	Registry   *RequestRegistry
	Queue      *DownloadQueue
	// MaxFileSize is the upload cap in bytes, shown in the oversize message
	MaxFileSize int64
	// Context outlives single updates; downloads run on it
	Context context.Context
	Logger  *zap.Logger

	lookups *semaphore.Weighted
}

// Validate checks that every required dependency is set and fills defaults
func (d *Dependencies) Validate() error {
	switch {
	case d.Messenger == nil:
		return fmt.Errorf("messenger is required")
	case d.Downloader == nil:
		return fmt.Errorf("downloader is required")
	case d.Metadata == nil:
		return fmt.Errorf("metadata source is required")
	case d.Registry == nil:
		return fmt.Errorf("request registry is required")
	case d.Queue == nil:
		return fmt.Errorf("download queue is required")
	}

	if d.MaxFileSize <= 0 {
		d.MaxFileSize = downloader.DefaultMaxFileSize
	}
	if d.Context == nil {
		d.Context = context.Background()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.lookups == nil {
		d.lookups = semaphore.NewWeighted(defaultMetadataLookups)
	}
	return nil
}
