package workers

import (
	"chat-relay/contract"
	"chat-relay/observability"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// StatsSource returns the current relay counters and gauges.
type StatsSource func() observability.RelayStats

// ProcessSampler reads the process resource usage.
type ProcessSampler func() (observability.ProcessStats, error)

// TelemetryWorker logs the relay statistics every metric interval.
type TelemetryWorker struct {
	log            *slog.Logger
	metricInterval time.Duration
	stats          StatsSource
	sampler        ProcessSampler
}

func NewTelemetryWorker(log *slog.Logger, metricInterval time.Duration, stats StatsSource, sampler ProcessSampler) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		metricInterval: metricInterval,
		stats:          stats,
		sampler:        sampler,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.report()
			return nil
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *TelemetryWorker) report() {
	stats := w.stats()
	attrs := []any{
		"uptime", stats.Uptime,
		"clients", stats.Clients,
		"routed", stats.Routed,
		"delivered", stats.Delivered,
		"failed", stats.Failed,
		"pruned", stats.Pruned,
		"overflow", stats.Overflow,
		"queue", stats.QueueSize,
		"capacity", stats.MaxCapacity,
		"history", stats.HistorySize,
	}
	if w.sampler != nil {
		proc, err := w.sampler()
		if err != nil {
			w.log.Debug("Error while sampling process", "err", err)
		} else {
			attrs = append(attrs, "rss_mb", proc.RSSMb, "cpu_percent", proc.CPUPercent)
		}
	}
	w.log.Info("Relay telemetry", attrs...)
}
