package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"fmt"
	"log/slog"
)

var _ contract.IAnnouncer = (*Announcer)(nil)

// Announcer routes join and leave notifications as ordinary broadcasts from SYSTEM.
type Announcer struct {
	log    *slog.Logger
	router contract.IRouter
}

func NewAnnouncer(log *slog.Logger, router contract.IRouter) *Announcer {
	return &Announcer{log: log, router: router}
}

func (a *Announcer) AnnounceJoin(ctx context.Context, name string) {
	a.announce(ctx, fmt.Sprintf("%s joined", name))
}

func (a *Announcer) AnnounceLeave(ctx context.Context, name string) {
	a.announce(ctx, fmt.Sprintf("%s left", name))
}

func (a *Announcer) announce(ctx context.Context, text string) {
	if _, err := a.router.Route(ctx, domain.System, domain.Everyone, text); err != nil {
		a.log.Error("System announcement failed", "text", text, "error", err)
	}
}
