package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/censusware/population-system/internal/api/metrics"
	"github.com/censusware/population-system/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes audit entries to a fixed set of workers using consistent
// hashing on the subject id, guaranteeing per-subject ordering of the audit
// trail.
type Dispatcher struct {
	workers []chan ports.AuditInput
	service ports.AuditService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.AuditService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.AuditInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.AuditInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Record sends an entry to the worker responsible for its subject. A full
// worker channel drops the entry rather than blocking the request path.
func (d *Dispatcher) Record(entry ports.AuditInput) {
	idx := d.shardIndex(entry.Subject)
	select {
	case d.workers[idx] <- entry:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.log.Warn().
			Str("action", entry.Action).
			Str("subject", entry.Subject).
			Msg("audit queue full, entry dropped")
	}
}

// shardIndex maps a subject id deterministically to a worker index.
func (d *Dispatcher) shardIndex(subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subject))
	// Modulo in uint32 space; converting the sum to int first would go
	// negative on 32-bit platforms.
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.AuditInput) {
	worker := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-ch:
			if !ok {
				return
			}
			metrics.AuditQueueDepth.WithLabelValues(worker).Set(float64(len(ch)))
			if err := d.service.Process(ctx, entry); err != nil {
				d.log.Error().Err(err).
					Str("action", entry.Action).
					Str("subject", entry.Subject).
					Int("worker_id", id).
					Msg("audit entry processing failed")
				continue
			}
			metrics.AuditEventsTotal.WithLabelValues(entry.Action).Inc()
		}
	}
}
