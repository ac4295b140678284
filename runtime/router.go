package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

var _ contract.IRouter = (*Router)(nil)

// Censor rewrites forbidden words before a message is built.
type Censor interface {
	Censor(original string) (string, []string)
}

type Router struct {
	log        *slog.Logger
	registry   contract.IRegistry
	history    contract.IHistory
	dispatcher contract.IDispatcher
	censor     Censor
	now        func() time.Time
}

func NewRouter(log *slog.Logger, registry contract.IRegistry, history contract.IHistory,
	dispatcher contract.IDispatcher, censor Censor) *Router {
	return &Router{
		log:        log,
		registry:   registry,
		history:    history,
		dispatcher: dispatcher,
		censor:     censor,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Route records the message and queues one delivery job per recipient.
// It returns as soon as the jobs are queued: success means accepted, not delivered.
//
// Broadcasts reach every registered client but the sender. A private message
// reaches the recipient, and a copy goes back to the sender when it is online.
// The message is kept in history even when the recipient is unknown.
func (r *Router) Route(ctx context.Context, sender, selector, text string) (domain.Message, error) {
	if sender == "" {
		return domain.Message{}, errors.ErrEmptySender
	}
	if selector == "" {
		selector = domain.Everyone
	}
	kind := domain.KindChat
	if sender == domain.System {
		kind = domain.KindSystem
	}
	if r.censor != nil {
		censored, words := r.censor.Censor(text)
		if len(words) > 0 {
			r.log.Debug("Message censored", "sender", sender, "words", len(words))
		}
		text = censored
	}

	message := domain.NewMessage(sender, selector, text, kind, r.now())
	if err := r.history.Append(ctx, message); err != nil {
		return domain.Message{}, fmt.Errorf("history append failed: %w", err)
	}

	if message.IsBroadcast() {
		targets := lo.Filter(r.registry.Snapshot(), func(s contract.Session, _ int) bool {
			return s.Name != sender
		})
		r.dispatch(message, targets...)
		r.log.Debug("Broadcast routed", "sender", sender, "targets", len(targets))
		return message, nil
	}

	recipient, ok := r.registry.Lookup(selector)
	if !ok {
		r.notifySender(sender, fmt.Sprintf("user %q not found or disconnected", selector))
		return domain.Message{}, fmt.Errorf("%q: %w", selector, errors.ErrRecipientNotFound)
	}
	targets := []contract.Session{recipient}
	if sender != selector {
		if self, ok := r.registry.Lookup(sender); ok {
			targets = append(targets, self)
		}
	}
	r.dispatch(message, targets...)
	r.log.Debug("Private message routed", "sender", sender, "recipient", selector)
	return message, nil
}

// notifySender pushes an out-of-band notice, never stored in history.
func (r *Router) notifySender(sender, text string) {
	self, ok := r.registry.Lookup(sender)
	if !ok {
		return
	}
	notice := domain.NewMessage(domain.System, sender, text, domain.KindNotice, r.now())
	r.dispatch(notice, self)
}

func (r *Router) dispatch(message domain.Message, targets ...contract.Session) {
	for _, target := range targets {
		r.dispatcher.Dispatch(contract.DeliveryJob{Message: message, Target: target})
	}
}
