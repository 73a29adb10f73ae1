package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jensneuse/abstractlogger"

	"github.com/chongma/gql-subscriptions-client/pkg/graphql"
	"github.com/chongma/gql-subscriptions-client/pkg/subscription"
)

const (
	GraphQLWSMessageTypeConnectionInit      = "connection_init"
	GraphQLWSMessageTypeConnectionAck       = "connection_ack"
	GraphQLWSMessageTypeConnectionError     = "connection_error"
	GraphQLWSMessageTypeConnectionTerminate = "connection_terminate"
	GraphQLWSMessageTypeConnectionKeepAlive = "ka"
	GraphQLWSMessageTypeStart               = "start"
	GraphQLWSMessageTypeStop                = "stop"
	GraphQLWSMessageTypeData                = "data"
	GraphQLWSMessageTypeError               = "error"
	GraphQLWSMessageTypeComplete            = "complete"
)

var (
	ErrGraphQLWSUnexpectedMessageType = errors.New("unexpected message type")
	ErrGraphQLWSConnectionRejected    = errors.New("connection rejected by server")
)

type GraphQLWSMessage struct {
	Id      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type GraphQLWSMessageReader struct {
	logger abstractlogger.Logger
}

func (g *GraphQLWSMessageReader) Read(data []byte) (*GraphQLWSMessage, error) {
	var message GraphQLWSMessage
	err := json.Unmarshal(data, &message)
	if err != nil {
		g.logger.Error("websocket.GraphQLWSMessageReader.Read: on json unmarshal",
			abstractlogger.Error(err),
			abstractlogger.ByteString("data", data),
		)

		return nil, err
	}
	return &message, nil
}

type GraphQLWSMessageWriter struct {
	logger abstractlogger.Logger
	client subscription.TransportClient
	mu     *sync.Mutex
}

func (g *GraphQLWSMessageWriter) WriteConnectionInit(payload []byte) error {
	message := &GraphQLWSMessage{
		Type:    GraphQLWSMessageTypeConnectionInit,
		Payload: payload,
	}
	return g.write(message)
}

func (g *GraphQLWSMessageWriter) WriteStart(id string, request graphql.Request) error {
	payloadBytes, err := json.Marshal(request)
	if err != nil {
		return err
	}
	message := &GraphQLWSMessage{
		Id:      id,
		Type:    GraphQLWSMessageTypeStart,
		Payload: payloadBytes,
	}
	return g.write(message)
}

func (g *GraphQLWSMessageWriter) WriteStop(id string) error {
	message := &GraphQLWSMessage{
		Id:   id,
		Type: GraphQLWSMessageTypeStop,
	}
	return g.write(message)
}

func (g *GraphQLWSMessageWriter) write(message *GraphQLWSMessage) error {
	jsonData, err := json.Marshal(message)
	if err != nil {
		g.logger.Error("websocket.GraphQLWSMessageWriter.write: on json marshal",
			abstractlogger.Error(err),
			abstractlogger.String("id", message.Id),
			abstractlogger.String("type", message.Type),
			abstractlogger.ByteString("payload", message.Payload),
		)
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.client.WriteBytesToServer(jsonData)
}

// ProtocolGraphQLWSHandler is the client side of the legacy graphql-ws sub-protocol
// (subscriptions-transport-ws).
type ProtocolGraphQLWSHandler struct {
	logger abstractlogger.Logger
	reader GraphQLWSMessageReader
	writer GraphQLWSMessageWriter
}

func NewProtocolGraphQLWSHandler(client subscription.TransportClient) *ProtocolGraphQLWSHandler {
	return NewProtocolGraphQLWSHandlerWithLogger(client, abstractlogger.Noop{})
}

func NewProtocolGraphQLWSHandlerWithLogger(client subscription.TransportClient, logger abstractlogger.Logger) *ProtocolGraphQLWSHandler {
	if logger == nil {
		logger = abstractlogger.Noop{}
	}

	return &ProtocolGraphQLWSHandler{
		logger: logger,
		reader: GraphQLWSMessageReader{
			logger: logger,
		},
		writer: GraphQLWSMessageWriter{
			logger: logger,
			client: client,
			mu:     &sync.Mutex{},
		},
	}
}

func (p *ProtocolGraphQLWSHandler) Init(payload []byte) error {
	return p.writer.WriteConnectionInit(payload)
}

func (p *ProtocolGraphQLWSHandler) Subscribe(id string, request graphql.Request) error {
	return p.writer.WriteStart(id, request)
}

func (p *ProtocolGraphQLWSHandler) Complete(id string) error {
	return p.writer.WriteStop(id)
}

// Ping is a no-op, keep alive messages are only sent by the server in this protocol.
func (p *ProtocolGraphQLWSHandler) Ping() error {
	return nil
}

func (p *ProtocolGraphQLWSHandler) Handle(ctx context.Context, data []byte, handler subscription.EventHandler) error {
	message, err := p.reader.Read(data)
	if err != nil {
		return err
	}

	switch message.Type {
	case GraphQLWSMessageTypeConnectionAck:
		handler.Emit(subscription.EventTypeConnectionAck, "", message.Payload, nil)
	case GraphQLWSMessageTypeConnectionKeepAlive:
		p.logger.Debug("websocket.ProtocolGraphQLWSHandler.Handle: on keep alive")
	case GraphQLWSMessageTypeConnectionError:
		handler.Emit(subscription.EventTypeConnectionTerminate, "", message.Payload,
			fmt.Errorf("%w: %s", ErrGraphQLWSConnectionRejected, string(message.Payload)))
	case GraphQLWSMessageTypeData:
		handler.Emit(subscription.EventTypeData, message.Id, message.Payload, nil)
	case GraphQLWSMessageTypeError:
		var requestErrors graphql.RequestErrors
		if err := json.Unmarshal(message.Payload, &requestErrors); err != nil {
			// some servers send a single error object instead of a list
			var requestError graphql.RequestError
			if json.Unmarshal(message.Payload, &requestError) != nil {
				handler.Emit(subscription.EventTypeError, message.Id, nil, err)
				return err
			}
			requestErrors = graphql.RequestErrors{requestError}
		}
		handler.Emit(subscription.EventTypeError, message.Id, nil, requestErrors)
	case GraphQLWSMessageTypeComplete:
		handler.Emit(subscription.EventTypeCompleted, message.Id, nil, nil)
	default:
		return fmt.Errorf("%w: %s", ErrGraphQLWSUnexpectedMessageType, message.Type)
	}

	return nil
}

var _ subscription.Protocol = (*ProtocolGraphQLWSHandler)(nil)
