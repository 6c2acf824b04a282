package downloader

import (
	"context"
)

// EngineStatus mirrors the transfer states reported by the extraction engine
type EngineStatus string

const (
	EngineStatusStarting       EngineStatus = "starting"
	EngineStatusDownloading    EngineStatus = "downloading"
	EngineStatusPostProcessing EngineStatus = "post_processing"
	EngineStatusFinished       EngineStatus = "finished"
	EngineStatusError          EngineStatus = "error"
)

// EngineOptions selects the format/codec policy for a single engine call
type EngineOptions struct {
	Format         string
	ExtractAudio   bool
	AudioFormat    string
	AudioQuality   string
	ExtractorArgs  []string
	OutputTemplate string
}

// EngineInfo is the subset of extracted info the bot cares about
type EngineInfo struct {
	ID       string
	Title    string
	Duration float64
	Filename string
}

// EngineProgress is a single transfer-state update from the engine
type EngineProgress struct {
	Status          EngineStatus
	DownloadedBytes int64
	TotalBytes      int64
	Filename        string
	Info            *EngineInfo
}

// Percent returns the transfer percentage in [0, 100]
func (p EngineProgress) Percent() float64 {
	if p.Status == EngineStatusFinished {
		return 100
	}
	if p.TotalBytes <= 0 {
		return 0
	}
	percent := float64(p.DownloadedBytes) / float64(p.TotalBytes) * 100
	if percent > 100 {
		return 100
	}
	return percent
}

// Engine is the external extraction/download engine.
// Implementations block until the engine finishes and must honour ctx
// cancellation by aborting the transfer.
type Engine interface {
	// ExtractInfo fetches metadata without downloading any media
	ExtractInfo(ctx context.Context, url string, opts EngineOptions) (*EngineInfo, error)

	// Download fetches the media, invoking onProgress for transfer updates
	Download(ctx context.Context, url string, opts EngineOptions, onProgress func(EngineProgress)) (*EngineInfo, error)
}
