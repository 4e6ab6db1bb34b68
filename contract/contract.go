//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-video/domain"
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

// EventSink is one live connection's inbox. Consume must be cheap and must
// never block fan-out: slow consumers are dropped by the delivery worker.
type EventSink interface {
	Consume(ctx context.Context, frame domain.Outbound) error
}

// IRegistry tracks live connections, the principal bound to each, and
// topic subscriptions.
type IRegistry interface {
	Bind(connectionID string, principal domain.Principal, sink EventSink) error
	Unbind(connectionID string)
	ConnectionsFor(user string) []string
	SinksForUser(user string) []EventSink
	Subscribe(connectionID, topic string)
	Unsubscribe(connectionID, topic string)
	SinksForTopic(topic string) []EventSink
}

// IChatService is the persistence-and-history face of the chat path.
type IChatService interface {
	SaveAndBroadcast(ctx context.Context, sender domain.Principal, roomID, content string, kind domain.MessageKind) (domain.Message, error)
	History(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
	Search(ctx context.Context, rawQuery string) ([]domain.Message, error)
}
