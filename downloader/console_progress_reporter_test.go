package downloader

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleProgressReporter(t *testing.T) {
	var out bytes.Buffer
	reporter := NewConsoleProgressReporter(&out, MediaVideo, ServiceVK)

	if err := reporter.UpdateProgress(PhaseDownloading, Progress{Percentage: 42}); err != nil {
		t.Fatalf("UpdateProgress() returned error: %v", err)
	}
	if err := reporter.UpdateProgress(PhaseConverting, Progress{}); err != nil {
		t.Fatalf("UpdateProgress() returned error: %v", err)
	}
	reporter.Stop()
	reporter.Stop()

	if err := reporter.UpdateProgress(PhaseDownloading, Progress{Percentage: 10}); err != nil {
		t.Errorf("Updates after Stop() should be ignored, got %v", err)
	}
	if !strings.Contains(out.String(), "Downloading video from VK") {
		t.Errorf("Expected the description in the output, got %q", out.String())
	}
}
