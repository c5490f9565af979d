//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
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
// Used for logging and supervision, avoiding manual naming in the
// Worker interface.
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

// EventSink is one client's delivery channel. Consume must respect ctx:
// the relay bounds every delivery with a timeout and a sink that cannot
// accept in time loses the event, never the other way around.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRelay is the session/presence/routing core as seen by the transport.
type IRelay interface {
	Connect(ctx context.Context, sink EventSink) (domain.Identity, error)
	Dispatch(ctx context.Context, cmd domain.Command) error
	Disconnect(id domain.Identity)
}
