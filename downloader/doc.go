// Package downloader resolves social-media URLs into local media files and
// reports transfer progress while doing so.
//
// The package defines core interfaces and data structures for:
//   - Engine: the external extraction/download engine (yt-dlp)
//   - MetadataFetcher: metadata-only lookups (title, duration)
//   - MediaDownloader: format policy, progress callbacks and cancellation
//   - ProgressTracker / ProgressReporter: throttled status message updates
//   - Error handling with structured DownloadError types
//
// This package is designed to be used with the Telegram bot system to provide
// real-time progress updates during media download and upload operations.
package downloader
