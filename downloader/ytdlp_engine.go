package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"
)

const progressPollInterval = 250 * time.Millisecond

// YtDlpEngine implements Engine on top of the yt-dlp binary
type YtDlpEngine struct {
	executable string
	logger     *zap.Logger
}

// NewYtDlpEngine creates an engine using the given yt-dlp executable.
// An empty executable resolves yt-dlp from PATH.
func NewYtDlpEngine(executable string, logger *zap.Logger) *YtDlpEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YtDlpEngine{
		executable: executable,
		logger:     logger.Named("yt-dlp"),
	}
}

// InstallYtDlp downloads a yt-dlp binary into the go-ytdlp cache
func InstallYtDlp(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

func (e *YtDlpEngine) command(opts EngineOptions) *ytdlp.Command {
	cmd := ytdlp.New().NoWarnings().NoPlaylist()
	if e.executable != "" {
		cmd.SetExecutable(e.executable)
	}
	for _, args := range opts.ExtractorArgs {
		cmd.ExtractorArgs(args)
	}
	return cmd
}

// ExtractInfo implements Engine
func (e *YtDlpEngine) ExtractInfo(ctx context.Context, url string, opts EngineOptions) (*EngineInfo, error) {
	cmd := e.command(opts).
		Quiet().
		SkipDownload().
		FlatPlaylist().
		DumpSingleJSON()

	result, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata extraction failed: %w", err)
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("yt-dlp returned no media for %s", url)
	}

	return convertExtractedInfo(infos[0]), nil
}

// Download implements Engine
func (e *YtDlpEngine) Download(ctx context.Context, url string, opts EngineOptions, onProgress func(EngineProgress)) (*EngineInfo, error) {
	cmd := e.command(opts).
		Output(opts.OutputTemplate).
		PrintJSON()

	if opts.Format != "" {
		cmd.Format(opts.Format)
	}
	if opts.ExtractAudio {
		cmd.ExtractAudio()
		if opts.AudioFormat != "" {
			cmd.AudioFormat(opts.AudioFormat)
		}
		if opts.AudioQuality != "" {
			cmd.AudioQuality(opts.AudioQuality)
		}
	}

	// The last update seen is the fallback source for the output filename.
	var (
		mu   sync.Mutex
		last EngineProgress
	)
	cmd.ProgressFunc(progressPollInterval, func(update ytdlp.ProgressUpdate) {
		progress := EngineProgress{
			Status:          EngineStatus(update.Status),
			DownloadedBytes: int64(update.DownloadedBytes),
			TotalBytes:      int64(update.TotalBytes),
			Filename:        update.Filename,
		}
		if update.Info != nil {
			progress.Info = convertExtractedInfo(update.Info)
		}

		mu.Lock()
		last = progress
		mu.Unlock()

		if onProgress != nil {
			onProgress(progress)
		}
	})

	e.logger.Debug("starting yt-dlp download", zap.String("url", url), zap.String("format", opts.Format))

	result, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp download failed: %w", err)
	}

	info := &EngineInfo{}
	if infos, err := result.GetExtractedInfo(); err == nil && len(infos) > 0 {
		info = convertExtractedInfo(infos[0])
	} else if err != nil {
		e.logger.Debug("could not parse yt-dlp info output", zap.Error(err))
	}

	mu.Lock()
	defer mu.Unlock()
	if info.Filename == "" {
		info.Filename = last.Filename
	}
	if info.ID == "" && last.Info != nil {
		info.ID = last.Info.ID
		info.Title = last.Info.Title
	}

	return info, nil
}

func convertExtractedInfo(in *ytdlp.ExtractedInfo) *EngineInfo {
	info := &EngineInfo{ID: in.ID}
	if in.Title != nil {
		info.Title = *in.Title
	}
	if in.Duration != nil {
		info.Duration = *in.Duration
	}
	if in.Filename != nil {
		info.Filename = *in.Filename
	}
	return info
}
