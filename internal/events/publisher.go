// Package events batches lookup events and hands them to a writer in the
// background, so that publishing never blocks a weather lookup.
package events

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-lookup/internal/domain"
	"github.com/couchcryptid/weather-lookup/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchWriter writes a batch of events to the destination.
type BatchWriter interface {
	WriteBatch(ctx context.Context, events []domain.LookupEvent) error
}

// Sink accepts lookup events. Publish must not block.
type Sink interface {
	Publish(event domain.LookupEvent)
}

// Discard is a Sink that drops every event.
type Discard struct{}

func (Discard) Publish(domain.LookupEvent) {}

// Publisher queues events and flushes them in batches, either when the batch
// is full or when the flush interval elapses.
type Publisher struct {
	writer        BatchWriter
	logger        *slog.Logger
	metrics       *observability.Metrics
	clock         clockwork.Clock
	queue         chan domain.LookupEvent
	batchSize     int
	flushInterval time.Duration
	finalTimeout  time.Duration
	failing       atomic.Bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithClock sets the clock driving flush ticks and retry backoff.
func WithClock(c clockwork.Clock) Option {
	return func(p *Publisher) { p.clock = c }
}

// WithQueueSize overrides the queue capacity (default 16 batches).
func WithQueueSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.queue = make(chan domain.LookupEvent, n)
		}
	}
}

// WithFinalFlushTimeout bounds the flush performed on shutdown.
func WithFinalFlushTimeout(d time.Duration) Option {
	return func(p *Publisher) { p.finalTimeout = d }
}

// NewPublisher creates a Publisher. Call Run to start flushing.
func NewPublisher(w BatchWriter, logger *slog.Logger, metrics *observability.Metrics, batchSize int, flushInterval time.Duration, opts ...Option) *Publisher {
	if batchSize < 1 {
		batchSize = 1
	}
	p := &Publisher{
		writer:        w,
		logger:        logger,
		metrics:       metrics,
		clock:         clockwork.NewRealClock(),
		queue:         make(chan domain.LookupEvent, batchSize*16),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		finalTimeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish enqueues an event. When the queue is full the event is dropped and
// counted.
func (p *Publisher) Publish(event domain.LookupEvent) {
	select {
	case p.queue <- event:
	default:
		p.metrics.EventsDropped.Inc()
		p.logger.Warn("lookup event queue full, dropping event", "event_id", event.ID)
	}
}

// CheckReadiness fails while writes are failing. It recovers on the next
// successful write.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if p.failing.Load() {
		return errors.New("lookup event writes failing")
	}
	return nil
}

// Run flushes queued events until ctx is cancelled, then drains the queue and
// makes one last bounded attempt to write what is left.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("lookup event publisher started", "batch_size", p.batchSize, "flush_interval", p.flushInterval)
	p.metrics.EventsEnabled.Set(1)
	defer p.metrics.EventsEnabled.Set(0)

	ticker := p.clock.NewTicker(p.flushInterval)
	defer ticker.Stop()

	batch := make([]domain.LookupEvent, 0, p.batchSize)
	for {
		select {
		case <-ctx.Done():
			p.shutdown(batch)
			return nil
		case ev := <-p.queue:
			batch = append(batch, ev)
			if len(batch) < p.batchSize {
				continue
			}
			if !p.flush(ctx, batch) {
				p.shutdown(batch)
				return nil
			}
			batch = make([]domain.LookupEvent, 0, p.batchSize)
		case <-ticker.Chan():
			if len(batch) == 0 {
				continue
			}
			if !p.flush(ctx, batch) {
				p.shutdown(batch)
				return nil
			}
			batch = make([]domain.LookupEvent, 0, p.batchSize)
		}
	}
}

// flush writes batch, retrying with exponential backoff. Returns false if ctx
// was cancelled before the write succeeded.
func (p *Publisher) flush(ctx context.Context, batch []domain.LookupEvent) bool {
	backoff := initialBackoff
	for {
		err := p.writer.WriteBatch(ctx, batch)
		if err == nil {
			p.recordWrite(len(batch))
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.failing.Store(true)
		p.metrics.EventsFailed.Inc()
		p.logger.Error("write lookup events failed", "error", err, "batch_size", len(batch), "retry_in", backoff)

		select {
		case <-ctx.Done():
			return false
		case <-p.clock.After(backoff):
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

func (p *Publisher) shutdown(batch []domain.LookupEvent) {
drain:
	for {
		select {
		case ev := <-p.queue:
			batch = append(batch, ev)
		default:
			break drain
		}
	}
	p.logger.Info("lookup event publisher stopping", "pending", len(batch))
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.finalTimeout)
	defer cancel()
	if err := p.writer.WriteBatch(ctx, batch); err != nil {
		p.metrics.EventsFailed.Inc()
		p.logger.Error("final lookup event flush failed", "error", err, "dropped", len(batch))
		return
	}
	p.recordWrite(len(batch))
}

func (p *Publisher) recordWrite(n int) {
	p.metrics.EventsPublished.Add(float64(n))
	p.metrics.EventBatchSize.Observe(float64(n))
	p.failing.Store(false)
}
