// Package relay defines the wire contract of the chat relay: request and response
// documents, the gRPC service descriptor and a typed client.
package relay

import (
	"chat-relay/domain"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// DefaultHistoryLimit applies when a GetHistory request carries no limit.
const DefaultHistoryLimit = 50

type ConnectRequest struct {
	Name string `json:"name" validate:"required,max=32"`
}

type UnregisterRequest struct {
	Name string `json:"name" validate:"required"`
}

type SendMessageRequest struct {
	Sender string `json:"sender" validate:"required"`
	// To is a user name or EVERYONE; empty means EVERYONE.
	To   string `json:"to"`
	Text string `json:"text" validate:"max=4096"`
}

type GetHistoryRequest struct {
	Limit *int `json:"limit,omitempty" validate:"omitempty,gte=0"`
}

type ListClientsRequest struct{}

type Ack struct {
	Ok bool `json:"ok"`
}

type GetHistoryResponse struct {
	Messages []*ChatEvent `json:"messages"`
}

type ListClientsResponse struct {
	Names []string `json:"names"`
}

// ChatEvent is the wire shape of a message: {from, to, text, ts} plus id and kind.
// Ts is a unix timestamp in milliseconds.
type ChatEvent struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Ts   int64  `json:"ts"`
	Kind string `json:"kind"`
}

func FromMessage(m domain.Message) *ChatEvent {
	return &ChatEvent{
		ID:   m.ID.String(),
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Ts:   m.At.UnixMilli(),
		Kind: string(m.Kind),
	}
}

func FromMessages(messages []domain.Message) []*ChatEvent {
	return lo.Map(messages, func(item domain.Message, _ int) *ChatEvent {
		return FromMessage(item)
	})
}

// ToMessage converts back to the domain value. An unparsable id yields uuid.Nil.
func (e *ChatEvent) ToMessage() domain.Message {
	id, _ := uuid.Parse(e.ID)
	return domain.Message{
		ID:   id,
		From: e.From,
		To:   e.To,
		Text: e.Text,
		At:   time.UnixMilli(e.Ts).UTC(),
		Kind: domain.Kind(e.Kind),
	}
}
