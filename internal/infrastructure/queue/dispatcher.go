package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/commons-hub/community-api/internal/api/metrics"
	"github.com/commons-hub/community-api/internal/core/domain"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
	publishTimeout = 5 * time.Second
)

// Publisher hands an event to the realtime transport.
type Publisher interface {
	Publish(ctx context.Context, event domain.RealtimeEvent) error
}

// Dispatcher routes realtime events to a fixed set of workers using
// consistent hashing on the shard key, guaranteeing per-conversation event
// ordering.
type Dispatcher struct {
	workers   []chan domain.RealtimeEvent
	publisher Publisher
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, publisher Publisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.RealtimeEvent, numWorkers),
		publisher: publisher,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.RealtimeEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go func(id int, ch <-chan domain.RealtimeEvent) {
			defer d.wg.Done()
			d.runWorker(ctx, id, ch)
		}(i, ch)
	}
}

// Wait blocks until every worker started by Start has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue sends an event to the worker responsible for its shard key. It
// never blocks the caller: when the worker's buffer is full the event is
// dropped and logged, since realtime delivery is best effort.
func (d *Dispatcher) Enqueue(event domain.RealtimeEvent) {
	idx := d.shardIndex(event.ShardKey())
	select {
	case d.workers[idx] <- event:
		metrics.RealtimeQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		d.log.Warn().
			Str("type", event.Type).
			Str("shard_key", event.ShardKey()).
			Int("worker_id", idx).
			Msg("realtime queue full, dropping event")
	}
}

// shardIndex maps a shard key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.RealtimeEvent) {
	depth := metrics.RealtimeQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.publish(ctx, id, event)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, id int, event domain.RealtimeEvent) {
	start := time.Now()
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(pubCtx, event); err != nil {
		metrics.RealtimePublishDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		d.log.Error().Err(err).
			Str("type", event.Type).
			Str("conversation_id", event.ConversationID).
			Int("worker_id", id).
			Msg("realtime publish failed")
		return
	}
	metrics.RealtimePublishDuration.WithLabelValues(event.Type).Observe(time.Since(start).Seconds())
}
