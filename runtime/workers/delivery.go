package workers

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"
)

// Ensure the delivery types implement their contracts at compile time.
var (
	_ contract.Worker      = (*DeliveryWorker)(nil)
	_ contract.IDispatcher = (*Dispatcher)(nil)
)

// Dispatcher queues delivery jobs for the pool of DeliveryWorker.
// Dispatch never blocks: when the queue is full the job gets its own goroutine.
type Dispatcher struct {
	log      *slog.Logger
	jobs     chan contract.DeliveryJob
	registry contract.IRegistry
	stats    *observability.StatsManager
	timeout  time.Duration
}

func NewDispatcher(log *slog.Logger, registry contract.IRegistry, stats *observability.StatsManager,
	bufferSize int, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		log:      log,
		jobs:     make(chan contract.DeliveryJob, bufferSize),
		registry: registry,
		stats:    stats,
		timeout:  timeout,
	}
}

func (d *Dispatcher) Dispatch(job contract.DeliveryJob) {
	d.stats.IncrRouted()
	select {
	case d.jobs <- job:
	default:
		d.stats.IncrOverflow()
		d.log.Warn("Delivery queue full, delivering on a dedicated goroutine",
			"recipient", job.Target.Name, "capacity", cap(d.jobs))
		go d.Deliver(context.Background(), job)
	}
}

// QueueSize reports the pending jobs and the queue capacity.
func (d *Dispatcher) QueueSize() (int, int) {
	return len(d.jobs), cap(d.jobs)
}

// NewWorkers builds the pool units reading this dispatcher's queue.
func (d *Dispatcher) NewWorkers(n int) []contract.Worker {
	res := make([]contract.Worker, 0, n)
	for i := 0; i < n; i++ {
		res = append(res, NewDeliveryWorker(d))
	}
	return res
}

// closer is implemented by handles backed by a connection the relay can end.
type closer interface {
	Close()
}

// Deliver pushes one message to one recipient within the delivery timeout.
// On failure the recipient is pruned and its connection closed, so the client
// notices and can reconnect; nothing is reported to the sender.
func (d *Dispatcher) Deliver(ctx context.Context, job contract.DeliveryJob) {
	deliveryCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := job.Target.Handle.Deliver(deliveryCtx, job.Message)
	if err == nil {
		d.stats.IncrDelivered()
		d.log.Debug("Message delivered",
			"message_id", job.Message.ID, "recipient", job.Target.Name, "latency", time.Since(start))
		return
	}

	if stderrors.Is(err, context.DeadlineExceeded) && !stderrors.Is(err, errors.ErrDeliveryTimeout) {
		err = fmt.Errorf("%w: %v", errors.ErrDeliveryTimeout, err)
	}
	d.stats.IncrFailed()
	d.log.Warn("Delivery failed",
		"message_id", job.Message.ID, "recipient", job.Target.Name, "error", err)

	if ctx.Err() != nil {
		// Shutting down: the client is not the one to blame.
		return
	}
	if !d.registry.Prune(ctx, job.Target.Name, job.Target.SessionID) {
		return
	}
	d.stats.IncrPruned()
	if c, ok := job.Target.Handle.(closer); ok {
		c.Close()
	}
}

// DeliveryWorker is one unit of the delivery pool.
type DeliveryWorker struct {
	dispatcher *Dispatcher
}

func NewDeliveryWorker(dispatcher *Dispatcher) *DeliveryWorker {
	return &DeliveryWorker{dispatcher: dispatcher}
}

func (w *DeliveryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.dispatcher.log.Debug("Stopping delivery worker")
			return ctx.Err()
		case job := <-w.dispatcher.jobs:
			w.dispatcher.Deliver(ctx, job)
		}
	}
}
