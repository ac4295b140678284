package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClientRecord is the registry entry of one connected client.
// SessionID tells two successive registrations under the same name apart.
type ClientRecord struct {
	Name         string
	SessionID    uuid.UUID
	RegisteredAt time.Time
}
