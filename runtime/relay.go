// Package runtime holds the relay core: client registry, message history,
// routing and the supervised delivery pool.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/observability"
	"chat-relay/runtime/workers"
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

var _ contract.IRelay = (*Relay)(nil)

// Sized is implemented by history backends able to report their length.
type Sized interface {
	Len() int
}

type Options struct {
	NumberOfWorkers int
	BufferSize      int
	DeliveryTimeout time.Duration
	RestartInterval time.Duration
	// Censor is optional; nil disables moderation.
	Censor Censor
}

// Relay is the single service object built at process start and shared by every
// transport handler.
type Relay struct {
	log        *slog.Logger
	registry   *Registry
	history    contract.IHistory
	router     *Router
	announcer  *Announcer
	dispatcher *workers.Dispatcher
	supervisor contract.ISupervisor
	stats      *observability.StatsManager
}

func NewRelay(log *slog.Logger, history contract.IHistory, opts Options) *Relay {
	stats := observability.NewStatsManager()
	registry := NewRegistry(log)
	dispatcher := workers.NewDispatcher(log, registry, stats, opts.BufferSize, opts.DeliveryTimeout)
	router := NewRouter(log, registry, history, dispatcher, opts.Censor)
	announcer := NewAnnouncer(log, router)
	registry.SetAnnouncer(announcer)

	supervisor := workers.NewSupervisor(log, opts.RestartInterval)
	supervisor.Add(dispatcher.NewWorkers(max(opts.NumberOfWorkers, 1))...)

	return &Relay{
		log:        log,
		registry:   registry,
		history:    history,
		router:     router,
		announcer:  announcer,
		dispatcher: dispatcher,
		supervisor: supervisor,
		stats:      stats,
	}
}

// Start runs the delivery pool in the background until ctx is done or Stop is called.
func (r *Relay) Start(ctx context.Context) {
	r.log.Info("Starting relay delivery workers")
	go r.supervisor.Run(ctx)
}

// Add supervises extra workers next to the delivery pool. Call it before Start.
func (r *Relay) Add(worker ...contract.Worker) {
	r.supervisor.Add(worker...)
}

func (r *Relay) Stop() {
	r.log.Info("Requesting relay shutdown")
	r.supervisor.Stop()
}

func (r *Relay) Register(ctx context.Context, name string, handle contract.ClientHandle) (domain.ClientRecord, error) {
	return r.registry.Register(ctx, name, handle)
}

func (r *Relay) Unregister(ctx context.Context, name string) error {
	return r.registry.Unregister(ctx, name)
}

// Leave drops the session only if it is still the one registered under name.
// Transports call it when a connection ends.
func (r *Relay) Leave(ctx context.Context, record domain.ClientRecord) bool {
	return r.registry.Prune(ctx, record.Name, record.SessionID)
}

func (r *Relay) SendMessage(ctx context.Context, sender, selector, text string) error {
	_, err := r.router.Route(ctx, sender, selector, text)
	return err
}

func (r *Relay) GetHistory(ctx context.Context, limit int) ([]domain.Message, error) {
	return r.history.Tail(ctx, limit)
}

func (r *Relay) ListClients() []string {
	return r.registry.ListNames()
}

// Clients returns the registry records sorted by name.
func (r *Relay) Clients() []domain.ClientRecord {
	return lo.Map(r.registry.Snapshot(), func(s contract.Session, _ int) domain.ClientRecord {
		return s.ClientRecord
	})
}

// Stats merges the delivery counters with the current gauges.
func (r *Relay) Stats() observability.RelayStats {
	stats := r.stats.Snapshot()
	stats.Clients = len(r.registry.ListNames())
	stats.QueueSize, stats.MaxCapacity = r.dispatcher.QueueSize()
	if sized, ok := r.history.(Sized); ok {
		stats.HistorySize = sized.Len()
	}
	return stats
}
