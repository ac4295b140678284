package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func appendN(t *testing.T, h *History, n int) []domain.Message {
	t.Helper()
	var messages []domain.Message
	for i := 0; i < n; i++ {
		msg := domain.NewMessage("alice", domain.Everyone, fmt.Sprintf("msg %d", i), domain.KindChat, time.Now())
		require.NoError(t, h.Append(context.Background(), msg))
		messages = append(messages, msg)
	}
	return messages
}

func TestHistory_Tail_Returns_Last_Messages_Oldest_First(t *testing.T) {
	req := require.New(t)
	history := NewHistory()

	// Given five messages
	messages := appendN(t, history, 5)

	// When the last three are requested
	tail, err := history.Tail(context.Background(), 3)

	// Then they come in arrival order
	req.NoError(err)
	req.Equal(messages[2:], tail)
}

func TestHistory_Tail_Limit_Larger_Than_History(t *testing.T) {
	req := require.New(t)
	history := NewHistory()
	messages := appendN(t, history, 2)

	tail, err := history.Tail(context.Background(), 50)

	req.NoError(err)
	req.Equal(messages, tail)
}

func TestHistory_Tail_Edge_Limits(t *testing.T) {
	req := require.New(t)
	history := NewHistory()
	appendN(t, history, 2)

	tail, err := history.Tail(context.Background(), 0)
	req.NoError(err)
	req.Empty(tail)

	_, err = history.Tail(context.Background(), -1)
	req.ErrorIs(err, errors.ErrInvalidLimit)
}

func TestHistory_Tail_Is_A_Copy(t *testing.T) {
	req := require.New(t)
	history := NewHistory()
	appendN(t, history, 1)

	tail, err := history.Tail(context.Background(), 1)
	req.NoError(err)
	tail[0].Text = "changed"

	again, err := history.Tail(context.Background(), 1)
	req.NoError(err)
	req.Equal("msg 0", again[0].Text)
}

func TestHistory_Concurrent_Appends(t *testing.T) {
	req := require.New(t)
	history := NewHistory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = history.Append(context.Background(),
					domain.NewMessage("bob", domain.Everyone, "hi", domain.KindChat, time.Now()))
				_, _ = history.Tail(context.Background(), 10)
			}
		}()
	}
	wg.Wait()

	req.Equal(1000, history.Len())
}
