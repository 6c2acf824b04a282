package downloader

import (
	"context"
	"sync"
)

// ReportThreshold is the minimum percentage increase between two reported
// progress updates. Message edits are rate limited by the platform.
const ReportThreshold = 5.0

// StatusMessage references the chat message that is edited in place
type StatusMessage struct {
	ChatID    int64
	MessageID int
}

// DownloadStatus tracks the state of a single request.
// It is owned by the orchestrator and never shared between requests.
type DownloadStatus struct {
	Message StatusMessage

	mu           sync.Mutex
	progress     float64
	lastReported float64
	reported     bool
	cancelled    bool
	cancelFunc   context.CancelFunc
}

// NewDownloadStatus creates a status bound to the given status message
func NewDownloadStatus(msg StatusMessage) *DownloadStatus {
	return &DownloadStatus{Message: msg}
}

// Observe records a new percentage and reports whether it should be shown.
// Progress never decreases; a report is due on the first observation, when
// the increase since the last report exceeds ReportThreshold, or on reaching
// 100%. Nothing is reported once the request is cancelled.
func (s *DownloadStatus) Observe(percent float64) (bool, float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if percent < s.progress {
		percent = s.progress
	}
	s.progress = percent

	if s.cancelled {
		return false, s.progress
	}

	report := false
	switch {
	case !s.reported:
		report = true
	case percent >= 100 && s.lastReported < 100:
		report = true
	case percent-s.lastReported > ReportThreshold:
		report = true
	}

	if report {
		s.reported = true
		s.lastReported = percent
	}
	return report, s.progress
}

// Progress returns the latest observed percentage
func (s *DownloadStatus) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// LastReported returns the last percentage that was reported
func (s *DownloadStatus) LastReported() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReported
}

// Cancel marks the request as cancelled and aborts the bound transfer.
// It returns false if the request was already cancelled.
func (s *DownloadStatus) Cancel() bool {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return false
	}
	s.cancelled = true
	cancel := s.cancelFunc
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return true
}

// Cancelled reports whether the request has been cancelled
func (s *DownloadStatus) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// bind attaches the cancel function of the running transfer
func (s *DownloadStatus) bind(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancelFunc = cancel
	cancelled := s.cancelled
	s.mu.Unlock()

	if cancelled {
		cancel()
	}
}
