package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"sync"
)

var _ contract.IHistory = (*History)(nil)

// History is the in-memory, append-only log of routed messages.
// It grows without bound for the lifetime of the process.
type History struct {
	mu       sync.RWMutex
	messages []domain.Message
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Append(_ context.Context, message domain.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, message)
	return nil
}

// Tail returns a copy of the last limit messages, oldest first.
func (h *History) Tail(_ context.Context, limit int) ([]domain.Message, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%d: %w", limit, errors.ErrInvalidLimit)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	start := max(len(h.messages)-limit, 0)
	tail := make([]domain.Message, len(h.messages)-start)
	copy(tail, h.messages[start:])
	return tail, nil
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}
