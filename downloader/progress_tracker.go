package downloader

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultEditInterval is the minimum spacing between two status edits
	DefaultEditInterval = time.Second

	updateBufferSize = 4
)

// ProgressTracker serialises progress updates for one request onto a
// bounded channel drained by a single goroutine. Updates are delivered to the
// reporter in order; when the buffer is full the oldest pending update is
// dropped so the latest state always wins.
type ProgressTracker struct {
	// Configuration
	reporter ProgressReporter
	limiter  *rate.Limiter
	logger   *zap.Logger

	// State management
	mu        sync.Mutex
	isRunning bool
	delivered int
	dropped   int

	// Goroutine management
	ctx        context.Context
	cancel     context.CancelFunc
	updateChan chan progressUpdate
	doneChan   chan struct{}
}

// progressUpdate represents an internal progress update
type progressUpdate struct {
	phase    Phase
	progress Progress
}

// NewProgressTracker creates a new ProgressTracker with the specified reporter
func NewProgressTracker(reporter ProgressReporter, logger *zap.Logger) *ProgressTracker {
	return NewProgressTrackerWithInterval(reporter, DefaultEditInterval, logger)
}

// NewProgressTrackerWithInterval creates a ProgressTracker with a custom edit interval.
// A zero interval disables rate limiting.
func NewProgressTrackerWithInterval(reporter ProgressReporter, interval time.Duration, logger *zap.Logger) *ProgressTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &ProgressTracker{
		reporter: reporter,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// Start begins delivering updates to the reporter
func (pt *ProgressTracker) Start(ctx context.Context) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.isRunning {
		return NewDownloadError(ErrorUnknown, "progress tracker is already running")
	}

	pt.updateChan = make(chan progressUpdate, updateBufferSize)
	pt.doneChan = make(chan struct{})
	pt.ctx, pt.cancel = context.WithCancel(ctx)
	pt.isRunning = true

	go pt.updateLoop(pt.ctx, pt.updateChan, pt.doneChan)

	return nil
}

// Stop discards pending updates, waits for the delivery goroutine to exit
// and stops the reporter. It is safe to call Stop more than once.
func (pt *ProgressTracker) Stop() {
	pt.mu.Lock()
	if !pt.isRunning {
		pt.mu.Unlock()
		return
	}
	pt.isRunning = false
	pt.cancel()
	done := pt.doneChan
	pt.mu.Unlock()

	<-done

	if pt.reporter != nil {
		pt.reporter.Stop()
	}
}

// UpdateProgress queues an update without blocking the caller
func (pt *ProgressTracker) UpdateProgress(phase Phase, progress Progress) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if !pt.isRunning {
		return
	}

	update := progressUpdate{phase: phase, progress: progress}
	select {
	case pt.updateChan <- update:
		return
	default:
	}

	// Buffer is full: drop the oldest pending update and retry once.
	select {
	case <-pt.updateChan:
		pt.dropped++
	default:
	}
	select {
	case pt.updateChan <- update:
	default:
		pt.dropped++
	}
}

// IsRunning returns whether the tracker is currently running
func (pt *ProgressTracker) IsRunning() bool {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.isRunning
}

// Stats returns the number of delivered and dropped updates
func (pt *ProgressTracker) Stats() (delivered, dropped int) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.delivered, pt.dropped
}

// updateLoop runs the delivery loop in a separate goroutine
func (pt *ProgressTracker) updateLoop(ctx context.Context, updates <-chan progressUpdate, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return

		case update := <-updates:
			if err := pt.limiter.Wait(ctx); err != nil {
				return
			}
			if pt.reporter == nil {
				continue
			}
			// Edit failures must never fail the download.
			if err := pt.reporter.UpdateProgress(update.phase, update.progress); err != nil {
				pt.logger.Warn("couldn't update progress message",
					zap.String("phase", update.phase.String()),
					zap.Float64("percentage", update.progress.Percentage),
					zap.Error(err))
				continue
			}
			pt.mu.Lock()
			pt.delivered++
			pt.mu.Unlock()
		}
	}
}
