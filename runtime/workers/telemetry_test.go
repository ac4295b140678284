package workers

import (
	"bytes"
	"chat-relay/observability"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTelemetryWorker_Logs_Stats(t *testing.T) {
	req := require.New(t)
	out := &syncBuffer{}
	log := slog.New(slog.NewTextHandler(out, nil))

	stats := func() observability.RelayStats {
		return observability.RelayStats{Clients: 2, Delivered: 7}
	}
	sampler := func() (observability.ProcessStats, error) {
		return observability.ProcessStats{RSSMb: 42}, nil
	}
	worker := NewTelemetryWorker(log, 10*time.Millisecond, stats, sampler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	req.Eventually(func() bool {
		return bytes.Contains([]byte(out.String()), []byte("Relay telemetry"))
	}, time.Second, 10*time.Millisecond)

	cancel()
	req.NoError(<-done)

	logged := out.String()
	req.Contains(logged, "clients=2")
	req.Contains(logged, "delivered=7")
	req.Contains(logged, "rss_mb=42")
}
