package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// inbox is a ClientHandle collecting what it receives.
// When failChat is set, chat messages are refused with it.
type inbox struct {
	mu       sync.Mutex
	messages []domain.Message
	failChat error
}

func (i *inbox) Deliver(_ context.Context, message domain.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.failChat != nil && message.Kind == domain.KindChat {
		return i.failChat
	}
	i.messages = append(i.messages, message)
	return nil
}

func (i *inbox) texts(kind domain.Kind) []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	var res []string
	for _, m := range i.messages {
		if m.Kind == kind {
			res = append(res, m.Text)
		}
	}
	return res
}

func startRelay(t *testing.T) *Relay {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	relay := NewRelay(log, NewHistory(), Options{
		NumberOfWorkers: 2,
		BufferSize:      16,
		DeliveryTimeout: 200 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	relay.Start(ctx)
	t.Cleanup(func() {
		relay.Stop()
		cancel()
	})
	return relay
}

func TestRelay_Broadcast_Scenario(t *testing.T) {
	req := require.New(t)
	relay := startRelay(t)
	ctx := context.Background()
	alice, bob := &inbox{}, &inbox{}

	// Given alice and bob are online
	_, err := relay.Register(ctx, "alice", alice)
	req.NoError(err)
	_, err = relay.Register(ctx, "bob", bob)
	req.NoError(err)
	req.ElementsMatch([]string{"alice", "bob"}, relay.ListClients())

	// When alice says hello to everyone
	err = relay.SendMessage(ctx, "alice", domain.Everyone, "hello")
	req.NoError(err)

	// Then bob receives it
	req.Eventually(func() bool {
		return len(bob.texts(domain.KindChat)) == 1
	}, time.Second, 10*time.Millisecond)
	req.Equal([]string{"hello"}, bob.texts(domain.KindChat))

	// And alice only saw the announcements
	req.Empty(alice.texts(domain.KindChat))
	req.Eventually(func() bool {
		return len(alice.texts(domain.KindSystem)) == 2
	}, time.Second, 10*time.Millisecond)
	req.ElementsMatch([]string{"alice joined", "bob joined"}, alice.texts(domain.KindSystem))
}

func TestRelay_History_Contains_Broadcast(t *testing.T) {
	req := require.New(t)
	relay := startRelay(t)
	ctx := context.Background()

	_, err := relay.Register(ctx, "alice", &inbox{})
	req.NoError(err)
	req.NoError(relay.SendMessage(ctx, "alice", domain.Everyone, "hi"))

	history, err := relay.GetHistory(ctx, 10)
	req.NoError(err)

	chats := make([]domain.Message, 0)
	for _, m := range history {
		if m.Kind == domain.KindChat {
			chats = append(chats, m)
		}
	}
	req.Len(chats, 1)
	req.Equal("alice", chats[0].From)
	req.Equal(domain.Everyone, chats[0].To)
	req.Equal("hi", chats[0].Text)

	// getHistory(0) is empty and never more than n items
	empty, err := relay.GetHistory(ctx, 0)
	req.NoError(err)
	req.Empty(empty)
	one, err := relay.GetHistory(ctx, 1)
	req.NoError(err)
	req.Len(one, 1)
	req.Equal("hi", one[0].Text)
}

func TestRelay_Unregistered_Recipient_Scenario(t *testing.T) {
	req := require.New(t)
	relay := startRelay(t)
	ctx := context.Background()

	// Given alice registered then left
	_, err := relay.Register(ctx, "alice", &inbox{})
	req.NoError(err)
	req.NoError(relay.Unregister(ctx, "alice"))

	// When bob writes to alice
	err = relay.SendMessage(ctx, "bob", "alice", "x")

	// Then alice cannot be found
	req.ErrorIs(err, errors.ErrRecipientNotFound)

	// And unregistering twice fails
	req.ErrorIs(relay.Unregister(ctx, "alice"), errors.ErrNotFound)
}

func TestRelay_Failing_Client_Is_Pruned(t *testing.T) {
	req := require.New(t)
	relay := startRelay(t)
	ctx := context.Background()
	alice := &inbox{}
	broken := &inbox{failChat: errors.ErrDeliveryUnreachable}

	_, err := relay.Register(ctx, "alice", alice)
	req.NoError(err)
	_, err = relay.Register(ctx, "bob", broken)
	req.NoError(err)

	// When a delivery to bob fails
	req.NoError(relay.SendMessage(ctx, "alice", "bob", "are you there?"))

	// Then bob is removed and alice hears about it
	req.Eventually(func() bool {
		return len(relay.ListClients()) == 1
	}, time.Second, 10*time.Millisecond)
	req.Equal([]string{"alice"}, relay.ListClients())
	req.Eventually(func() bool {
		for _, text := range alice.texts(domain.KindSystem) {
			if text == "bob left" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	req.GreaterOrEqual(relay.Stats().Pruned, uint64(1))
}

func TestRelay_Leave_Keeps_Newer_Session(t *testing.T) {
	req := require.New(t)
	relay := startRelay(t)
	ctx := context.Background()

	old, err := relay.Register(ctx, "alice", &inbox{})
	req.NoError(err)
	req.NoError(relay.Unregister(ctx, "alice"))
	_, err = relay.Register(ctx, "alice", &inbox{})
	req.NoError(err)

	// When the first connection finally ends
	req.False(relay.Leave(ctx, old))

	// Then alice is still online
	req.Equal([]string{"alice"}, relay.ListClients())
	req.Len(relay.Clients(), 1)
}

func TestRelay_Stats(t *testing.T) {
	req := require.New(t)
	relay := startRelay(t)
	ctx := context.Background()

	_, err := relay.Register(ctx, "alice", &inbox{})
	req.NoError(err)

	stats := relay.Stats()
	req.Equal(1, stats.Clients)
	req.Equal(1, stats.HistorySize)
	req.Equal(16, stats.MaxCapacity)
}
