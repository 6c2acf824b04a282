package downloader

import (
	"context"
)

// Phase represents the current phase of a request
type Phase int

const (
	PhaseDownloading Phase = iota
	PhaseConverting
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseDownloading:
		return "downloading"
	case PhaseConverting:
		return "converting"
	default:
		return "unknown"
	}
}

// Progress represents the current progress of a transfer
type Progress struct {
	BytesProcessed int64   `json:"bytes_processed"`
	TotalBytes     int64   `json:"total_bytes"`
	Percentage     float64 `json:"percentage"`
}

// ProgressReporter renders progress for a single request somewhere visible
// to the user (a chat status message, a terminal).
type ProgressReporter interface {
	// UpdateProgress reports progress for the current phase
	UpdateProgress(phase Phase, progress Progress) error

	// Stop releases any resources held by the reporter
	Stop()
}

// Downloader is the contract the bot uses to run downloads
type Downloader interface {
	Download(ctx context.Context, req DownloadRequest, status *DownloadStatus, reporter ProgressReporter) (*DownloadResult, error)
}

// MetadataSource is the contract the bot uses to look up media metadata
type MetadataSource interface {
	FetchMetadata(ctx context.Context, url string, service Service) (*MediaInfo, error)
}
