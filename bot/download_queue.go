package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"go-media-bot/downloader"
)

// ErrQueueFull is returned when every download slot and queue position is taken
var ErrQueueFull = errors.New("download queue is full")

// QueueRequest represents a single download waiting for or holding a slot
type QueueRequest struct {
	UniqueID    string
	UserID      int64
	ChatID      int64
	MessageID   int
	URL         string
	Service     downloader.Service
	Kind        downloader.MediaKind
	RequestTime time.Time
	StartTime   time.Time
	Status      QueueStatus
	// OnAbandon runs when the queue context ends before the request gets a
	// slot. It does not run after Cancel.
	OnAbandon func(err error)
}

// QueueStatus represents the current status of a queue request
type QueueStatus int

const (
	StatusQueued QueueStatus = iota
	StatusProcessing
	StatusCompleted
	StatusFailed
	StatusCancelled
)

// String returns string representation of queue status
func (s QueueStatus) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// DownloadQueue runs downloads with bounded parallelism. Up to maxParallel
// jobs hold a slot; up to maxQueued more wait in FIFO order.
type DownloadQueue struct {
	sem         *semaphore.Weighted
	maxParallel int
	maxQueued   int

	mu      sync.RWMutex
	pending []*QueueRequest
	cancels map[*QueueRequest]context.CancelFunc
	wg      sync.WaitGroup
	logger  *zap.Logger
}

// NewDownloadQueue creates a new download queue
func NewDownloadQueue(maxParallel, maxQueued int, logger *zap.Logger) *DownloadQueue {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	if maxQueued < 0 {
		maxQueued = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadQueue{
		sem:         semaphore.NewWeighted(int64(maxParallel)),
		maxParallel: maxParallel,
		maxQueued:   maxQueued,
		cancels:     make(map[*QueueRequest]context.CancelFunc),
		logger:      logger,
	}
}

// Capacity returns the total number of requests the queue accepts
func (q *DownloadQueue) Capacity() int {
	return q.maxParallel + q.maxQueued
}

// MaxParallel returns the number of concurrent download slots
func (q *DownloadQueue) MaxParallel() int {
	return q.maxParallel
}

// Submit enqueues job. It returns ErrQueueFull without running job when the
// queue has no room. job runs once a slot is free, or never if ctx ends or
// the request is cancelled first.
func (q *DownloadQueue) Submit(ctx context.Context, req *QueueRequest, job func(ctx context.Context) error) error {
	q.mu.Lock()
	if len(q.pending) >= q.Capacity() {
		q.mu.Unlock()
		return ErrQueueFull
	}
	if q.findRequestByID(req.UniqueID) != nil {
		q.mu.Unlock()
		return fmt.Errorf("request with ID %s already exists", req.UniqueID)
	}

	if req.RequestTime.IsZero() {
		req.RequestTime = time.Now()
	}
	req.Status = StatusQueued
	jobCtx, cancel := context.WithCancel(ctx)
	q.pending = append(q.pending, req)
	q.cancels[req] = cancel
	position := len(q.pending)
	q.wg.Add(1)
	q.mu.Unlock()

	q.logger.Debug("Added request to queue",
		zap.String("request_id", req.UniqueID),
		zap.Int("position", position))

	go q.run(jobCtx, req, job)
	return nil
}

// Cancel withdraws a request that is still waiting for a slot. Its place is
// freed at once and its job never runs. It returns false if the request is
// running or unknown.
func (q *DownloadQueue) Cancel(uniqueID string) bool {
	q.mu.Lock()
	req := q.findRequestByID(uniqueID)
	if req == nil || req.Status != StatusQueued {
		q.mu.Unlock()
		return false
	}
	cancel := q.cancels[req]
	delete(q.cancels, req)
	req.Status = StatusCancelled
	q.removeLocked(req)
	q.mu.Unlock()

	cancel()
	q.logger.Info("Request withdrawn from queue", zap.String("request_id", uniqueID))
	return true
}

func (q *DownloadQueue) run(ctx context.Context, req *QueueRequest, job func(ctx context.Context) error) {
	defer q.wg.Done()
	defer q.release(req)

	if err := q.sem.Acquire(ctx, 1); err != nil {
		q.leaveQueue(req, err)
		return
	}
	defer q.sem.Release(1)

	q.mu.Lock()
	if _, queued := q.cancels[req]; !queued {
		// Withdrawn while the slot was being granted.
		q.mu.Unlock()
		return
	}
	req.Status = StatusProcessing
	req.StartTime = time.Now()
	q.mu.Unlock()

	q.logger.Info("Processing request",
		zap.String("request_id", req.UniqueID),
		zap.String("url", req.URL),
		zap.Duration("waited", req.StartTime.Sub(req.RequestTime)))

	err := job(ctx)
	switch {
	case err == nil:
		q.setStatus(req, StatusCompleted)
		q.logger.Info("Request completed", zap.String("request_id", req.UniqueID))
	case downloader.IsCancelled(err):
		q.setStatus(req, StatusCancelled)
		q.logger.Info("Request cancelled", zap.String("request_id", req.UniqueID))
	default:
		q.setStatus(req, StatusFailed)
		q.logger.Warn("Request failed",
			zap.String("request_id", req.UniqueID),
			zap.Error(err))
	}
}

// leaveQueue handles a request whose context ended before it got a slot
func (q *DownloadQueue) leaveQueue(req *QueueRequest, err error) {
	q.mu.Lock()
	_, queued := q.cancels[req]
	req.Status = StatusCancelled
	q.mu.Unlock()

	if !queued {
		return
	}
	q.logger.Info("Request abandoned before starting",
		zap.String("request_id", req.UniqueID),
		zap.Error(err))
	if req.OnAbandon != nil {
		req.OnAbandon(err)
	}
}

// release drops a finished request and its context
func (q *DownloadQueue) release(req *QueueRequest) {
	q.mu.Lock()
	cancel, ok := q.cancels[req]
	delete(q.cancels, req)
	q.removeLocked(req)
	q.mu.Unlock()

	if ok {
		cancel()
	}
}

func (q *DownloadQueue) setStatus(req *QueueRequest, status QueueStatus) {
	q.mu.Lock()
	req.Status = status
	q.mu.Unlock()
}

// findRequestByID finds a request by its unique ID (must be called with lock held)
func (q *DownloadQueue) findRequestByID(uniqueID string) *QueueRequest {
	for _, request := range q.pending {
		if request.UniqueID == uniqueID {
			return request
		}
	}
	return nil
}

// removeLocked removes a request from the queue (must be called with lock held)
func (q *DownloadQueue) removeLocked(req *QueueRequest) {
	for i, request := range q.pending {
		if request == req {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// GetQueuePosition returns the 1-based position of a waiting request, or -1
// if it is running or unknown
func (q *DownloadQueue) GetQueuePosition(uniqueID string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	position := 0
	for _, request := range q.pending {
		if request.Status != StatusQueued {
			continue
		}
		position++
		if request.UniqueID == uniqueID {
			return position
		}
	}
	return -1
}

// GetQueueInfo returns copies of the running and waiting requests, oldest first
func (q *DownloadQueue) GetQueueInfo() []QueueRequest {
	q.mu.RLock()
	defer q.mu.RUnlock()

	info := make([]QueueRequest, 0, len(q.pending))
	for _, request := range q.pending {
		info = append(info, *request)
	}
	return info
}

// GetQueueSize returns the number of running and waiting requests
func (q *DownloadQueue) GetQueueSize() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.pending)
}

// Wait blocks until every submitted job has returned
func (q *DownloadQueue) Wait() {
	q.wg.Wait()
}
