package renderer

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

const (
	notifyQueueSize = 256
	notifyIdle      = time.Second
)

// NotificationStats counts the asynchronous notifications a sink has handled.
type NotificationStats struct {
	WorkDone         uint64
	WorkDoneFailures uint64
	UncapturedErrors uint64
	// Dropped counts notifications that arrived after Close.
	Dropped uint64
}

// NotificationSink receives fire-and-forget backend notifications (queue work-done and uncaptured
// device errors) and handles them on a worker pool, off the frame loop. Handlers only log and count;
// they never touch pipeline or buffer state.
type NotificationSink struct {
	logger *slog.Logger
	pool   worker.DynamicWorkerPool

	mu      sync.RWMutex
	closed  bool
	pending sync.WaitGroup
	nextID  atomic.Int64

	workDone         atomic.Uint64
	workDoneFailures atomic.Uint64
	uncaptured       atomic.Uint64
	dropped          atomic.Uint64
}

// NewNotificationSink creates a sink backed by a dynamic worker pool.
//
// Parameters:
//   - logger: the logger notifications are written to
//   - workers: the maximum number of pool workers, at least 1
//
// Returns:
//   - *NotificationSink: the sink
func NewNotificationSink(logger *slog.Logger, workers int) *NotificationSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationSink{
		logger: logger,
		pool:   worker.NewDynamicWorkerPool(max(workers, 1), notifyQueueSize, notifyIdle),
	}
}

func (s *NotificationSink) submit(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	s.pending.Add(1)
	s.pool.SubmitTask(worker.Task{
		ID: int(s.nextID.Add(1)),
		Do: func() (any, error) {
			defer s.pending.Done()
			fn()
			return nil, nil
		},
	})
}

// UncapturedError reports a backend error that no call returned.
func (s *NotificationSink) UncapturedError(label string, errorType ErrorType, message string) {
	s.submit(func() {
		s.uncaptured.Add(1)
		s.logger.Error("uncaptured device error", "label", label, "type", errorType.String(), "message", message)
	})
}

// WorkDone reports the completion of one submitted work batch.
func (s *NotificationSink) WorkDone(status WorkDoneStatus) {
	s.submit(func() {
		if status != WorkDoneStatusSuccess {
			s.workDoneFailures.Add(1)
			s.logger.Warn("queued work finished", "status", status.String())
			return
		}
		s.workDone.Add(1)
		s.logger.Debug("queued work finished", "status", status.String())
	})
}

// Flush blocks until every notification submitted so far has been handled.
func (s *NotificationSink) Flush() {
	s.pending.Wait()
}

// Close handles every notification submitted so far, then stops the worker pool.
// Notifications arriving afterwards are counted as dropped. Safe to call multiple times.
func (s *NotificationSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.Flush()
	s.pool.Stop()
}

// Stats returns the notification counters.
func (s *NotificationSink) Stats() NotificationStats {
	return NotificationStats{
		WorkDone:         s.workDone.Load(),
		WorkDoneFailures: s.workDoneFailures.Load(),
		UncapturedErrors: s.uncaptured.Load(),
		Dropped:          s.dropped.Load(),
	}
}
