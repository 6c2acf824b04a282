package downloader

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// ConsoleProgressReporter renders progress as a terminal bar
type ConsoleProgressReporter struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	kind    MediaKind
	stopped bool
}

// NewConsoleProgressReporter creates a reporter writing to w
func NewConsoleProgressReporter(w io.Writer, kind MediaKind, service Service) *ConsoleProgressReporter {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s from %s", kind, service.DisplayName())),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "▓",
			SaucerHead:    "▓",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
	)
	return &ConsoleProgressReporter{bar: bar, kind: kind}
}

// UpdateProgress implements ProgressReporter
func (c *ConsoleProgressReporter) UpdateProgress(phase Phase, progress Progress) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return nil
	}

	switch phase {
	case PhaseDownloading:
		return c.bar.Set(int(progress.Percentage))
	case PhaseConverting:
		c.bar.Describe(fmt.Sprintf("Converting %s", c.kind))
		return c.bar.Set(100)
	}
	return nil
}

// Stop implements ProgressReporter
func (c *ConsoleProgressReporter) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	c.stopped = true
	_ = c.bar.Finish()
}
