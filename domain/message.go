// Package domain contains core concepts of the chat relay.
// This file defines Message values and the addressing rules.
// Messages are immutable once built by the router.
package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// Everyone is the recipient selector addressing every registered client.
	Everyone = "EVERYONE"
	// System is the sender name used for join and leave announcements.
	System = "SYSTEM"
)

type Kind string

const (
	KindChat   Kind = "chat"
	KindSystem Kind = "system"
	// KindNotice marks out-of-band messages which are delivered but never stored in history.
	KindNotice Kind = "notice"
)

// Message represents an immutable routed chat message.
type Message struct {
	ID   uuid.UUID
	From string
	To   string
	Text string
	At   time.Time
	Kind Kind
}

func NewMessage(from, to, text string, kind Kind, at time.Time) Message {
	return Message{
		ID:   uuid.New(),
		From: from,
		To:   to,
		Text: text,
		At:   at,
		Kind: kind,
	}
}

// IsBroadcast reports whether the message is addressed to everyone.
func (m Message) IsBroadcast() bool {
	return m.To == Everyone
}

// IsReservedName reports names no client may register under.
func IsReservedName(name string) bool {
	return name == Everyone || name == System
}
