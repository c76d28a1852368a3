package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/mcsupervisor/internal/metrics"
)

// ErrQueueFull is returned by Queue.Notify when the message was dropped.
var ErrQueueFull = errors.New("notification queue full")

// ErrQueueClosed is returned by Queue.Notify after Stop.
var ErrQueueClosed = errors.New("notification queue closed")

// Queue delivers messages to a Notifier from a single worker goroutine,
// in the order they were enqueued. Notify never blocks the caller.
type Queue struct {
	next    Notifier
	timeout time.Duration
	logger  *slog.Logger

	ch     chan string
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a queue of the given capacity in front of next.
// Each delivery is bounded by timeout.
func NewQueue(next Notifier, size int, timeout time.Duration, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		next:    next,
		timeout: timeout,
		logger:  logger,
		ch:      make(chan string, size),
		done:    make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (q *Queue) Start() {
	go q.run()
}

// Notify enqueues text. It returns ErrQueueFull if the queue has no room.
func (q *Queue) Notify(_ context.Context, text string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ch <- text:
		return nil
	default:
		metrics.ObserveNotification(metrics.ResultDropped)
		return ErrQueueFull
	}
}

// Stop closes the queue and waits until pending messages are delivered
// or ctx is done.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)

	for text := range q.ch {
		q.deliver(text)
	}
}

func (q *Queue) deliver(text string) {
	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	if err := q.next.Notify(ctx, text); err != nil {
		metrics.ObserveNotification(metrics.ResultFailed)
		q.logger.Warn("Failed to send notification", "error", err)
		return
	}

	metrics.ObserveNotification(metrics.ResultSent)
	q.logger.Debug("Notification sent", "text", text)
}
