package subscription

//go:generate mockgen -destination=handler_mock_test.go -package=subscription . Protocol,EventHandler,TransportClient

import (
	"context"
	"errors"

	"github.com/chongma/gql-subscriptions-client/pkg/graphql"
)

var (
	ErrCouldNotReadMessageFromServer   = errors.New("could not read message from server")
	ErrTransportClientClosedConnection = errors.New("transport client has a closed connection")
	ErrStreamClosed                    = errors.New("stream is closed")
	ErrConnectionTerminated            = errors.New("connection terminated by server")
)

type EventType int

const (
	EventTypeError EventType = iota
	EventTypeData
	EventTypeCompleted
	EventTypeConnectionAck
	EventTypeConnectionTerminate
	EventTypeConnectionError
)

// Protocol is the client side of a subscription sub-protocol.
type Protocol interface {
	// Init starts the connection handshake with the given connection parameters.
	Init(payload []byte) error
	Subscribe(id string, request graphql.Request) error
	Complete(id string) error
	Ping() error
	// Handle interprets one message from the server and reports the outcome to handler.
	Handle(ctx context.Context, message []byte, handler EventHandler) error
}

type EventHandler interface {
	Emit(eventType EventType, id string, data []byte, err error)
}

// Observer receives the events of one subscription. Callbacks of a single
// subscription are never invoked concurrently and arrive in server order.
type Observer struct {
	Next     func(data []byte)
	Error    func(err error)
	Complete func()
}

func (o Observer) next(data []byte) {
	if o.Next != nil {
		o.Next(data)
	}
}

func (o Observer) error(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

func (o Observer) complete() {
	if o.Complete != nil {
		o.Complete()
	}
}
