package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const maxNameLength = 32

var _ contract.IRegistry = (*Registry)(nil)

type Registry struct {
	mu        sync.RWMutex
	log       *slog.Logger
	sessions  map[string]contract.Session // map name -> Session
	announcer contract.IAnnouncer
	now       func() time.Time
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:      log,
		sessions: make(map[string]contract.Session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetAnnouncer plugs the join/leave announcer.
// Registry and router depend on each other, so the link is made after construction.
func (r *Registry) SetAnnouncer(announcer contract.IAnnouncer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.announcer = announcer
}

// Register inserts a new session for name.
// The join announcement is issued once the lock is released: the router reads the
// registry while resolving the broadcast targets.
func (r *Registry) Register(ctx context.Context, name string, handle contract.ClientHandle) (domain.ClientRecord, error) {
	if err := ValidateName(name); err != nil {
		return domain.ClientRecord{}, err
	}
	if handle == nil {
		return domain.ClientRecord{}, fmt.Errorf("%w: nil handle", errors.ErrInvalidRequest)
	}

	r.mu.Lock()
	if _, ok := r.sessions[name]; ok {
		r.mu.Unlock()
		r.log.Info("Registration rejected, name already online", "name", name)
		return domain.ClientRecord{}, fmt.Errorf("%q: %w", name, errors.ErrNameInUse)
	}
	record := domain.ClientRecord{
		Name:         name,
		SessionID:    uuid.New(),
		RegisteredAt: r.now(),
	}
	r.sessions[name] = contract.Session{ClientRecord: record, Handle: handle}
	total := len(r.sessions)
	announcer := r.announcer
	r.mu.Unlock()

	r.log.Info("Client registered", "name", name, "session", record.SessionID, "total", total)
	if announcer != nil {
		announcer.AnnounceJoin(ctx, name)
	}
	return record, nil
}

// Unregister removes the session registered under name.
func (r *Registry) Unregister(ctx context.Context, name string) error {
	r.mu.Lock()
	if _, ok := r.sessions[name]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%q: %w", name, errors.ErrNotFound)
	}
	delete(r.sessions, name)
	total := len(r.sessions)
	announcer := r.announcer
	r.mu.Unlock()

	r.log.Info("Client unregistered", "name", name, "total", total)
	if announcer != nil {
		announcer.AnnounceLeave(ctx, name)
	}
	return nil
}

// Prune removes name only while it is still held by sessionID.
// A client that reconnected under the same name keeps its new session.
// Used after a failed delivery and when a transport connection ends.
func (r *Registry) Prune(ctx context.Context, name string, sessionID uuid.UUID) bool {
	r.mu.Lock()
	session, ok := r.sessions[name]
	if !ok || session.SessionID != sessionID {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, name)
	total := len(r.sessions)
	announcer := r.announcer
	r.mu.Unlock()

	r.log.Info("Client session removed", "name", name, "session", sessionID, "total", total)
	if announcer != nil {
		announcer.AnnounceLeave(ctx, name)
	}
	return true
}

func (r *Registry) Lookup(name string) (contract.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[name]
	return session, ok
}

// ListNames returns the names currently online, sorted alphabetically.
func (r *Registry) ListNames() []string {
	r.mu.RLock()
	names := lo.Keys(r.sessions)
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of every session, sorted by name.
func (r *Registry) Snapshot() []contract.Session {
	r.mu.RLock()
	sessions := lo.Values(r.sessions)
	r.mu.RUnlock()
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Name < sessions[j].Name })
	return sessions
}

// ValidateName rejects empty, oversized, blank-containing and reserved names.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", errors.ErrInvalidName)
	case utf8.RuneCountInString(name) > maxNameLength:
		return fmt.Errorf("%w: longer than %d characters", errors.ErrInvalidName, maxNameLength)
	case strings.IndexFunc(name, unicode.IsSpace) >= 0:
		return fmt.Errorf("%w: %q contains spaces", errors.ErrInvalidName, name)
	case domain.IsReservedName(name):
		return fmt.Errorf("%w: %q is reserved", errors.ErrInvalidName, name)
	}
	return nil
}
