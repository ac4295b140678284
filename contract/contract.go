//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"context"
	"reflect"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// ClientHandle is the capability used to push a message to one connected client.
// Deliver is best effort and must return once ctx is done.
type ClientHandle interface {
	Deliver(ctx context.Context, message domain.Message) error
}

// Session is a registry record together with the handle it was registered with.
type Session struct {
	domain.ClientRecord
	Handle ClientHandle
}

// DeliveryJob is one attempted push of one message to one recipient.
type DeliveryJob struct {
	Message domain.Message
	Target  Session
}

type IRegistry interface {
	Register(ctx context.Context, name string, handle ClientHandle) (domain.ClientRecord, error)
	Unregister(ctx context.Context, name string) error
	Prune(ctx context.Context, name string, sessionID uuid.UUID) bool
	Lookup(name string) (Session, bool)
	ListNames() []string
	Snapshot() []Session
}

type IHistory interface {
	Append(ctx context.Context, message domain.Message) error
	Tail(ctx context.Context, limit int) ([]domain.Message, error)
}

type IDispatcher interface {
	Dispatch(job DeliveryJob)
}

type IAnnouncer interface {
	AnnounceJoin(ctx context.Context, name string)
	AnnounceLeave(ctx context.Context, name string)
}

type IRouter interface {
	Route(ctx context.Context, sender, selector, text string) (domain.Message, error)
}

// IRelay is the set of inbound operations served to remote callers.
type IRelay interface {
	Register(ctx context.Context, name string, handle ClientHandle) (domain.ClientRecord, error)
	Unregister(ctx context.Context, name string) error
	SendMessage(ctx context.Context, sender, selector, text string) error
	GetHistory(ctx context.Context, limit int) ([]domain.Message, error)
	ListClients() []string
}
