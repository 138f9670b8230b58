// Package worker drains the ingestion queue into the campaign history store.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/admetrics/internal/domain/model"
	"github.com/okian/admetrics/pkg/logger"
	"github.com/okian/admetrics/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Appender persists a validated campaign day.
type Appender interface {
	Append(ctx context.Context, day model.CampaignDay) (bool, error)
}

// Forgetter releases an id that was recorded at submit time but never stored,
// so the same record can be submitted again.
type Forgetter interface {
	Unrecord(ctx context.Context, id string)
}

// Queue defines how workers receive records.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.CampaignDay
}

// Worker processes records until its queue closes or it is stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker on top of a Queue and an Appender.
type InMemoryWorker struct {
	queue     Queue
	store     Appender
	forgetter Forgetter
	name      string

	processed *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, store Appender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		store:     store,
		name:      "worker",
		processed: &atomic.Int64{},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop. It returns once the queue is closed and
// drained, ctx is cancelled, or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	records := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case day, ok := <-records:
			if !ok {
				return
			}
			if err := w.process(ctx, day); err != nil {
				w.logger.Error(ctx, "error processing record", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for the current record to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, day model.CampaignDay) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := day.Validate(); err != nil {
		metrics.RecordHistoryRejected("invalid")
		w.forget(ctx, day.ID)
		return fmt.Errorf("record %s: %w", day.ID, err)
	}

	stored, err := w.store.Append(ctx, day)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordHistoryRejected("store_error")
		w.forget(ctx, day.ID)
		w.logger.Error(ctx, "append failed",
			logger.String("id", day.ID),
			logger.String("channel", day.Channel),
			logger.Error(err),
		)
		return fmt.Errorf("append %s: %w", day.ID, err)
	}

	w.processed.Add(1)
	if !stored {
		metrics.RecordHistoryDuplicate()
		w.logger.Debug(ctx, "duplicate record ignored", logger.String("id", day.ID))
		return nil
	}
	metrics.RecordHistoryIngested()
	return nil
}

func (w *InMemoryWorker) forget(ctx context.Context, id string) {
	if w.forgetter != nil && id != "" {
		w.forgetter.Unrecord(ctx, id)
	}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed atomic.Int64

	shutdown chan struct{}
	stopped  atomic.Bool

	logger logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 selects a CPU-derived default.
func NewPool(workerCount int, q Queue, store Appender, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, store, wopts...)
		w.processed = &pool.processed
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many records reached the store, duplicates included.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			metrics.UpdateWorkerCount(len(p.workers))
		}
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
// Records still queued when ctx or the pool timeout expires are lost.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}

	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	p.logger.Info(ctx, "worker pool stopped", logger.Int64("processed", p.Processed()))
	return nil
}
