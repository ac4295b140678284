package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/observability"
	"chat-relay/sink"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newJob(handle contract.ClientHandle, name string) contract.DeliveryJob {
	return contract.DeliveryJob{
		Message: domain.NewMessage("alice", domain.Everyone, "hello", domain.KindChat, time.Now()),
		Target: contract.Session{
			ClientRecord: domain.ClientRecord{Name: name, SessionID: uuid.New()},
			Handle:       handle,
		},
	}
}

func TestDispatcher_Deliver_Success(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	handle := mocks.NewMockClientHandle(ctrl)
	stats := observability.NewStatsManager()
	dispatcher := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), registry, stats, 10, time.Second)
	job := newJob(handle, "bob")

	// Given the client accepts the message
	handle.EXPECT().Deliver(gomock.Any(), job.Message).Return(nil)
	// Then nobody is pruned
	registry.EXPECT().Prune(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	dispatcher.Deliver(context.Background(), job)

	snapshot := stats.Snapshot()
	req.Equal(uint64(1), snapshot.Delivered)
	req.Zero(snapshot.Failed)
}

func TestDispatcher_Deliver_Failure_Prunes_Session(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	handle := mocks.NewMockClientHandle(ctrl)
	stats := observability.NewStatsManager()
	dispatcher := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), registry, stats, 10, time.Second)
	job := newJob(handle, "bob")

	// Given the connection of bob is gone
	handle.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(errors.ErrDeliveryUnreachable)
	// Then bob's session, and only this one, is pruned
	registry.EXPECT().Prune(gomock.Any(), "bob", job.Target.SessionID).Return(true)

	dispatcher.Deliver(context.Background(), job)

	snapshot := stats.Snapshot()
	req.Equal(uint64(1), snapshot.Failed)
	req.Equal(uint64(1), snapshot.Pruned)
}

func TestDispatcher_Deliver_Timeout(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	handle := mocks.NewMockClientHandle(ctrl)
	stats := observability.NewStatsManager()
	dispatcher := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), registry, stats, 10, 50*time.Millisecond)
	job := newJob(handle, "bob")

	// Given a client that never reads
	handle.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ domain.Message) error {
			<-ctx.Done()
			return ctx.Err()
		})
	registry.EXPECT().Prune(gomock.Any(), "bob", job.Target.SessionID).Return(true)

	start := time.Now()
	dispatcher.Deliver(context.Background(), job)

	// Then the attempt is bounded by the delivery timeout
	req.Less(time.Since(start), time.Second)
	req.Equal(uint64(1), stats.Snapshot().Failed)
}

func TestDispatcher_Deliver_Timeout_Closes_Pruned_Connection(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	stats := observability.NewStatsManager()
	dispatcher := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), registry, stats, 10, 20*time.Millisecond)

	// Given a connection whose buffer is full and never drained
	connection := sink.NewConnectionSink(1)
	dispatcher.Deliver(context.Background(), newJob(connection, "bob"))
	job := newJob(connection, "bob")
	registry.EXPECT().Prune(gomock.Any(), "bob", job.Target.SessionID).Return(true)

	// When the next delivery times out
	dispatcher.Deliver(context.Background(), job)

	// Then the session is pruned and its connection closed
	select {
	case <-connection.Done():
	default:
		req.Fail("pruned connection should be closed")
	}
	req.Equal(uint64(1), stats.Snapshot().Pruned)
}

func TestDispatcher_Deliver_Keeps_Connection_Of_Newer_Session(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	dispatcher := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), registry, observability.NewStatsManager(), 10, 20*time.Millisecond)

	connection := sink.NewConnectionSink(1)
	dispatcher.Deliver(context.Background(), newJob(connection, "bob"))

	// Given the failed session was already replaced
	registry.EXPECT().Prune(gomock.Any(), "bob", gomock.Any()).Return(false)

	dispatcher.Deliver(context.Background(), newJob(connection, "bob"))

	// Then nothing is closed
	select {
	case <-connection.Done():
		req.Fail("connection of a session left in place should stay open")
	default:
	}
}

func TestDispatcher_Deliver_No_Prune_On_Shutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	handle := mocks.NewMockClientHandle(ctrl)
	dispatcher := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), registry, observability.NewStatsManager(), 10, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handle.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ domain.Message) error { return ctx.Err() })
	registry.EXPECT().Prune(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	dispatcher.Deliver(ctx, newJob(handle, "bob"))
}

func TestDispatcher_Overflow_Still_Delivers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	handle := mocks.NewMockClientHandle(ctrl)
	stats := observability.NewStatsManager()
	// No worker reads this queue of one slot
	dispatcher := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), registry, stats, 1, time.Second)

	delivered := make(chan struct{}, 2)
	handle.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.Message) error {
			delivered <- struct{}{}
			return nil
		}).Times(1)

	// When two jobs are dispatched
	dispatcher.Dispatch(newJob(handle, "bob"))
	dispatcher.Dispatch(newJob(handle, "bob"))

	// Then the first waits in the queue and the second is delivered anyway
	select {
	case <-delivered:
	case <-time.After(time.Second):
		req.Fail("overflowed job should have been delivered")
	}
	size, capacity := dispatcher.QueueSize()
	req.Equal(1, size)
	req.Equal(1, capacity)
	snapshot := stats.Snapshot()
	req.Equal(uint64(2), snapshot.Routed)
	req.Equal(uint64(1), snapshot.Overflow)
}

func TestDeliveryWorker_Drains_Queue(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	handle := mocks.NewMockClientHandle(ctrl)
	stats := observability.NewStatsManager()
	dispatcher := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), registry, stats, 10, time.Second)

	handle.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- NewDeliveryWorker(dispatcher).Run(ctx) }()

	for i := 0; i < 3; i++ {
		dispatcher.Dispatch(newJob(handle, "bob"))
	}

	req.Eventually(func() bool {
		return stats.Snapshot().Delivered == 3
	}, time.Second, 10*time.Millisecond)

	// When the context is canceled the worker returns
	cancel()
	select {
	case err := <-done:
		req.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		req.Fail("worker should stop on cancel")
	}
}
