package observability

import (
	"sync/atomic"
	"time"
)

// RelayStats aggregates delivery counters for the inspector and the telemetry log.
type RelayStats struct {
	Routed      uint64 `json:"routed"`
	Delivered   uint64 `json:"delivered"`
	Failed      uint64 `json:"failed"`
	Pruned      uint64 `json:"pruned"`
	Overflow    uint64 `json:"overflow"`
	Clients     int    `json:"clients"`
	HistorySize int    `json:"history_size"`
	QueueSize   int    `json:"queue_size"`
	MaxCapacity int    `json:"max_capacity"`
	Uptime      string `json:"uptime"`
}

// StatsManager holds the live counters, updated concurrently by the delivery workers.
type StatsManager struct {
	routed    uint64
	delivered uint64
	failed    uint64
	pruned    uint64
	overflow  uint64
	startedAt time.Time
}

func NewStatsManager() *StatsManager {
	return &StatsManager{startedAt: time.Now()}
}

func (sm *StatsManager) IncrRouted()    { atomic.AddUint64(&sm.routed, 1) }
func (sm *StatsManager) IncrDelivered() { atomic.AddUint64(&sm.delivered, 1) }
func (sm *StatsManager) IncrFailed()    { atomic.AddUint64(&sm.failed, 1) }
func (sm *StatsManager) IncrPruned()    { atomic.AddUint64(&sm.pruned, 1) }
func (sm *StatsManager) IncrOverflow()  { atomic.AddUint64(&sm.overflow, 1) }

// Snapshot reads the counters. Gauges (clients, queue, history) are filled by the caller.
func (sm *StatsManager) Snapshot() RelayStats {
	return RelayStats{
		Routed:    atomic.LoadUint64(&sm.routed),
		Delivered: atomic.LoadUint64(&sm.delivered),
		Failed:    atomic.LoadUint64(&sm.failed),
		Pruned:    atomic.LoadUint64(&sm.pruned),
		Overflow:  atomic.LoadUint64(&sm.overflow),
		Uptime:    time.Since(sm.startedAt).Truncate(time.Second).String(),
	}
}
