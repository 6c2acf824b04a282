package downloader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxFileSize is the largest file the bot uploads (50 MiB)
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

// MediaDownloaderOptions configures a MediaDownloader
type MediaDownloaderOptions struct {
	// DownloadDir is the flat directory all files are written to
	DownloadDir string
	// MaxFileSize is the upload cap; zero disables the size check
	MaxFileSize int64
	// EditInterval spaces status message edits
	EditInterval time.Duration
	// Tagger writes the title into video files; nil disables tagging
	Tagger Tagger
}

// MediaDownloader runs a single download through the engine, feeds progress
// to the reporter and enforces the size cap
type MediaDownloader struct {
	engine       Engine
	downloadDir  string
	maxFileSize  int64
	editInterval time.Duration
	tagger       Tagger
	logger       *zap.Logger
}

// NewMediaDownloader creates a new MediaDownloader
func NewMediaDownloader(engine Engine, opts MediaDownloaderOptions, logger *zap.Logger) *MediaDownloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "downloads"
	}
	return &MediaDownloader{
		engine:       engine,
		downloadDir:  opts.DownloadDir,
		maxFileSize:  opts.MaxFileSize,
		editInterval: opts.EditInterval,
		tagger:       opts.Tagger,
		logger:       logger,
	}
}

// DownloadDir returns the directory files are written to
func (d *MediaDownloader) DownloadDir() string {
	return d.downloadDir
}

// MaxFileSize returns the configured upload cap in bytes
func (d *MediaDownloader) MaxFileSize() int64 {
	return d.maxFileSize
}

// Download implements Downloader.
//
// Cancelling status aborts the engine and yields an ErrorCancelled error.
// If ctx ends instead, the error is ErrorAborted.
// Every non-success path removes the files written for the request. The
// progress tracker is stopped before Download returns, so no progress edit
// can land after the caller's terminal edit.
func (d *MediaDownloader) Download(ctx context.Context, req DownloadRequest, status *DownloadStatus, reporter ProgressReporter) (*DownloadResult, error) {
	start := time.Now()
	logger := d.logger.With(
		zap.String("url", req.URL),
		zap.String("service", string(req.Service)),
		zap.String("kind", string(req.Kind)),
		zap.Int64("chat_id", req.ChatID),
		zap.Int("message_id", req.MessageID),
	)

	if status == nil {
		status = NewDownloadStatus(StatusMessage{ChatID: req.ChatID, MessageID: req.MessageID})
	}
	if status.Cancelled() {
		return nil, NewDownloadError(ErrorCancelled, "download cancelled by user")
	}

	if err := os.MkdirAll(d.downloadDir, 0o755); err != nil {
		return nil, NewDownloadErrorWithCause(ErrorFileSystemError, "failed to create downloads directory", err).
			WithContext("dir", d.downloadDir)
	}

	policy := PolicyFor(req.Service, req.Kind)

	dlCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	status.bind(cancel)

	tracker := NewProgressTrackerWithInterval(reporter, d.editInterval, logger)
	if err := tracker.Start(dlCtx); err != nil {
		return nil, err
	}
	defer tracker.Stop()

	var (
		mu       sync.Mutex
		lastFile string
	)
	onProgress := func(p EngineProgress) {
		if status.Cancelled() {
			cancel()
			return
		}

		if p.Filename != "" {
			mu.Lock()
			lastFile = p.Filename
			mu.Unlock()
		}

		if p.Status == EngineStatusPostProcessing {
			tracker.UpdateProgress(PhaseConverting, Progress{Percentage: status.Progress()})
			return
		}

		report, percent := status.Observe(p.Percent())
		if !report {
			return
		}
		tracker.UpdateProgress(PhaseDownloading, Progress{
			BytesProcessed: p.DownloadedBytes,
			TotalBytes:     p.TotalBytes,
			Percentage:     percent,
		})
	}

	logger.Info("starting download", zap.String("format", policy.Format))

	info, err := d.engine.Download(dlCtx, req.URL, policy.EngineOptions(d.downloadDir), onProgress)
	tracker.Stop()

	mu.Lock()
	partial := lastFile
	mu.Unlock()

	if status.Cancelled() {
		d.removePartial(logger, info, partial)
		logger.Info("download cancelled", zap.Duration("elapsed", time.Since(start)))
		return nil, NewDownloadErrorWithCause(ErrorCancelled, "download cancelled by user", err)
	}
	if err != nil && ctx.Err() != nil {
		d.removePartial(logger, info, partial)
		logger.Warn("download aborted", zap.Duration("elapsed", time.Since(start)), zap.Error(ctx.Err()))
		return nil, NewDownloadErrorWithCause(ErrorAborted, "download aborted", err)
	}
	if err != nil {
		d.removePartial(logger, info, partial)
		logger.Error("download failed", zap.Error(err))
		return nil, NewDownloadErrorWithCause(ErrorDownloadFailed, "engine failed to download media", err).
			WithContext("url", req.URL)
	}

	if info == nil {
		info = &EngineInfo{}
	}
	if info.Filename == "" {
		info.Filename = partial
	}

	filePath, err := d.resolveOutput(policy, info)
	if err != nil {
		d.removePartial(logger, info, partial)
		logger.Error("downloaded file not found", zap.Error(err))
		return nil, err
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		d.removePartial(logger, info, partial)
		logger.Error("failed to stat downloaded file", zap.String("path", filePath), zap.Error(err))
		return nil, NewDownloadErrorWithCause(ErrorFileSystemError, "failed to stat downloaded file", err).
			WithContext("path", filePath)
	}

	if d.maxFileSize > 0 && stat.Size() > d.maxFileSize {
		if rmErr := RemoveFile(filePath); rmErr != nil {
			logger.Warn("failed to remove oversized file", zap.Error(rmErr))
		}
		logger.Warn("downloaded file exceeds upload limit",
			zap.Int64("size", stat.Size()),
			zap.Int64("limit", d.maxFileSize))
		return nil, NewDownloadError(ErrorFileTooLarge, "file exceeds upload limit").
			WithContext("size", stat.Size()).
			WithContext("limit", d.maxFileSize).
			WithContext("path", filePath)
	}

	if req.Kind == MediaVideo && d.tagger != nil {
		if err := d.tagger.TagTitle(filePath, info.Title); err != nil {
			logger.Warn("failed to tag video title", zap.String("path", filePath), zap.Error(err))
		}
	}

	result := &DownloadResult{
		FilePath: filePath,
		FileSize: stat.Size(),
		Info: MediaInfo{
			ID:       info.ID,
			Title:    info.Title,
			Duration: int(info.Duration),
		},
		Kind:     req.Kind,
		Format:   strings.TrimPrefix(filepath.Ext(filePath), "."),
		Duration: time.Since(start),
	}
	if result.Info.ID == "" {
		result.Info.ID = mediaID(filePath)
	}

	logger.Info("download completed",
		zap.String("path", result.FilePath),
		zap.Int64("size", result.FileSize),
		zap.Duration("elapsed", result.Duration))

	return result, nil
}

// resolveOutput determines the final file path of a finished download.
// The engine's reported name is preferred; otherwise the directory is searched
// for the media id.
func (d *MediaDownloader) resolveOutput(policy FormatPolicy, info *EngineInfo) (string, error) {
	id := info.ID
	if info.Filename != "" {
		path := policy.OutputPath(info.Filename)
		if filepath.Dir(path) == "." {
			path = filepath.Join(d.downloadDir, path)
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		if id == "" {
			id = mediaID(path)
		}
	}

	if id == "" {
		return "", NewDownloadError(ErrorFileSystemError, "engine reported no output file")
	}
	if policy.ExtractAudio {
		return filepath.Join(d.downloadDir, id+"."+policy.AudioCodec), nil
	}

	matches, err := filepath.Glob(filepath.Join(d.downloadDir, globEscape(id)+".*"))
	if err != nil {
		return "", NewDownloadErrorWithCause(ErrorFileSystemError, "invalid output pattern", err)
	}
	for _, match := range matches {
		if isIntermediate(match) {
			continue
		}
		return match, nil
	}
	return "", NewDownloadError(ErrorFileSystemError, "downloaded file not found").
		WithContext("id", id)
}

// isIntermediate reports whether path is a partial or per-format file
// left behind by the engine (<id>.f137.mp4, <id>.mp4.part)
func isIntermediate(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, ".part") || strings.HasSuffix(base, ".ytdl") {
		return true
	}
	parts := strings.Split(base, ".")
	return len(parts) > 2 && strings.HasPrefix(parts[1], "f")
}

// removePartial removes every file written for the request
func (d *MediaDownloader) removePartial(logger *zap.Logger, info *EngineInfo, lastFile string) {
	id := ""
	if info != nil {
		id = info.ID
	}
	if id == "" {
		id = mediaID(lastFile)
	}
	if id == "" {
		return
	}
	if err := RemoveMediaFiles(d.downloadDir, id); err != nil {
		logger.Warn("failed to remove partial files", zap.String("id", id), zap.Error(err))
	}
}
