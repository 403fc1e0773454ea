// Package expiry deletes listings when their lifetime ends.
package expiry

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/metrics"
)

// Deleter removes a listing by id. Deleting a missing listing must succeed.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

const (
	defaultRetryDelay  = 30 * time.Second
	defaultTaskTimeout = 5 * time.Second
)

// Scheduler keeps one pending deletion per listing in a min-heap ordered by due time
// and fires them from a single goroutine. Tasks are not persisted.
type Scheduler struct {
	store       Deleter
	now         func() time.Time
	retryDelay  time.Duration
	taskTimeout time.Duration

	mu    sync.Mutex
	queue taskQueue
	byID  map[string]*task
	wake  chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source used to compute delays.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRetryDelay sets the pause before the single retry of a failed deletion.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// New creates a stopped scheduler.
func New(store Deleter, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:       store,
		now:         time.Now,
		retryDelay:  defaultRetryDelay,
		taskTimeout: defaultTaskTimeout,
		byID:        make(map[string]*task),
		wake:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule arranges for the listing to be deleted at at. Scheduling an id again moves its due time.
func (s *Scheduler) Schedule(id string, at time.Time) {
	if id == "" {
		return
	}
	s.mu.Lock()
	if t, ok := s.byID[id]; ok {
		t.at = at
		t.retried = false
		heap.Fix(&s.queue, t.index)
	} else {
		t := &task{id: id, at: at}
		heap.Push(&s.queue, t)
		s.byID[id] = t
	}
	metrics.ExpiryPending.Set(float64(len(s.queue)))
	s.mu.Unlock()
	s.signal()
}

// Pending returns the number of scheduled deletions.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Start runs the dispatcher in the background until Stop or ctx cancellation.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		s.Run(ctx)
	}(s.done)
}

// Stop halts the dispatcher and waits for an in-flight deletion to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run fires due tasks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		if t := s.popDue(timer); t != nil {
			s.fire(ctx, t)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-timer.C:
		}
	}
}

// popDue removes and returns the head task if it is due; otherwise it arms timer for the head.
func (s *Scheduler) popDue(timer *time.Timer) *task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		timer.Stop()
		return nil
	}
	head := s.queue[0]
	if wait := head.at.Sub(s.now()); wait > 0 {
		timer.Reset(wait)
		return nil
	}
	heap.Pop(&s.queue)
	delete(s.byID, head.id)
	metrics.ExpiryPending.Set(float64(len(s.queue)))
	return head
}

func (s *Scheduler) fire(ctx context.Context, t *task) {
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.taskTimeout)
	defer cancel()

	lag := s.now().Sub(t.at)
	err := s.store.Delete(taskCtx, t.id)
	if err == nil {
		metrics.ListingsRemoved.WithLabelValues("expiry").Inc()
		logger.Info(ctx, logger.CompExpiry, "listing.expired",
			slog.String("listing_id", t.id),
			slog.Duration("lag", lag),
		)
		return
	}

	if t.retried {
		logger.Error(ctx, logger.CompExpiry, "listing.expire.fail",
			slog.String("listing_id", t.id),
			slog.Bool("retried", true),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Warn(ctx, logger.CompExpiry, "listing.expire.retry",
		slog.String("listing_id", t.id),
		slog.Duration("delay", s.retryDelay),
		slog.String("err", err.Error()),
	)
	s.mu.Lock()
	if _, ok := s.byID[t.id]; !ok {
		t.at = s.now().Add(s.retryDelay)
		t.retried = true
		heap.Push(&s.queue, t)
		s.byID[t.id] = t
		metrics.ExpiryPending.Set(float64(len(s.queue)))
	}
	s.mu.Unlock()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
