package deliverylog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-rtm/pkg/config"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/logger"
	"github.com/goliatone/go-rtm/pkg/interfaces/store"
	"github.com/goliatone/go-rtm/pkg/retry"
)

var (
	ErrMissingRepository = errors.New("deliverylog: delivery repository is required")
	ErrClosed            = errors.New("deliverylog: recorder closed")
)

// Dependencies groups the collaborators required by the recorder.
type Dependencies struct {
	Deliveries store.DeliveryRecordRepository
	Logger     logger.Logger
	Config     config.DeliveryLogConfig
	Backoff    retry.Backoff
}

// Recorder persists delivery records off the dispatch path. Record only
// queues; a fixed pool of workers writes to the repository.
type Recorder struct {
	deliveries store.DeliveryRecordRepository
	logger     logger.Logger
	cfg        config.DeliveryLogConfig
	backoff    retry.Backoff

	jobs    chan domain.DeliveryRecord
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	stored  atomic.Int64
}

// New builds a recorder and starts its workers.
func New(deps Dependencies) (*Recorder, error) {
	if deps.Deliveries == nil {
		return nil, ErrMissingRepository
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Config.MaxWorkers <= 0 {
		deps.Config.MaxWorkers = 4
	}
	if deps.Config.MaxRetries < 0 {
		deps.Config.MaxRetries = 0
	}
	if deps.Config.QueueSize <= 0 {
		deps.Config.QueueSize = 1024
	}
	if deps.Backoff == nil {
		deps.Backoff = retry.DefaultBackoff()
	}

	r := &Recorder{
		deliveries: deps.Deliveries,
		logger:     deps.Logger,
		cfg:        deps.Config,
		backoff:    deps.Backoff,
		jobs:       make(chan domain.DeliveryRecord, deps.Config.QueueSize),
	}
	for range deps.Config.MaxWorkers {
		r.wg.Add(1)
		go r.work()
	}
	return r, nil
}

// Record queues rec. When the queue is full the record is dropped and
// counted; delivery never waits on the audit trail.
func (r *Recorder) Record(ctx context.Context, rec domain.DeliveryRecord) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.jobs <- rec:
	default:
		r.dropped.Add(1)
		r.logger.Warn("delivery log queue full, dropping record",
			logger.F("topic", rec.Topic),
			logger.F("event", rec.Event),
		)
	}
}

// Close stops accepting records and waits for queued ones to be written
// or for ctx to end.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.jobs)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped reports how many records never reached the repository.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// Stored reports how many records were persisted.
func (r *Recorder) Stored() int64 { return r.stored.Load() }

func (r *Recorder) work() {
	defer r.wg.Done()
	for rec := range r.jobs {
		if err := r.persist(rec); err != nil {
			r.dropped.Add(1)
			r.logger.Error("delivery log write failed",
				logger.F("topic", rec.Topic),
				logger.F("event", rec.Event),
				logger.F("client_id", rec.ClientID),
				logger.F("error", err),
			)
		}
	}
}

// persist makes one attempt plus MaxRetries retries.
func (r *Recorder) persist(rec domain.DeliveryRecord) error {
	attempts := r.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		// each attempt inserts a fresh copy
		record := rec
		lastErr = r.deliveries.Create(context.Background(), &record)
		if lastErr == nil {
			r.stored.Add(1)
			return nil
		}
		r.logger.Warn("delivery log write error", logger.F("attempt", attempt), logger.F("error", lastErr))
		if attempt < attempts {
			time.Sleep(r.backoff.Next(attempt))
		}
	}
	return fmt.Errorf("deliverylog: write failed after %d attempts: %w", attempts, lastErr)
}
