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

type GraphQLTransportWSMessageType string

const (
	GraphQLTransportWSMessageTypeConnectionInit GraphQLTransportWSMessageType = "connection_init"
	GraphQLTransportWSMessageTypeConnectionAck  GraphQLTransportWSMessageType = "connection_ack"
	GraphQLTransportWSMessageTypePing           GraphQLTransportWSMessageType = "ping"
	GraphQLTransportWSMessageTypePong           GraphQLTransportWSMessageType = "pong"
	GraphQLTransportWSMessageTypeSubscribe      GraphQLTransportWSMessageType = "subscribe"
	GraphQLTransportWSMessageTypeNext           GraphQLTransportWSMessageType = "next"
	GraphQLTransportWSMessageTypeError          GraphQLTransportWSMessageType = "error"
	GraphQLTransportWSMessageTypeComplete       GraphQLTransportWSMessageType = "complete"
)

var ErrGraphQLTransportWSUnexpectedMessageType = errors.New("unexpected message type")

type GraphQLTransportWSMessage struct {
	Id      string                        `json:"id,omitempty"`
	Type    GraphQLTransportWSMessageType `json:"type"`
	Payload json.RawMessage               `json:"payload,omitempty"`
}

type GraphQLTransportWSMessageReader struct {
	logger abstractlogger.Logger
}

// Read deserializes a byte slice to the GraphQLTransportWSMessage struct.
func (g *GraphQLTransportWSMessageReader) Read(data []byte) (*GraphQLTransportWSMessage, error) {
	var message GraphQLTransportWSMessage
	err := json.Unmarshal(data, &message)
	if err != nil {
		g.logger.Error("websocket.GraphQLTransportWSMessageReader.Read: on json unmarshal",
			abstractlogger.Error(err),
			abstractlogger.ByteString("data", data),
		)

		return nil, err
	}
	return &message, nil
}

// DeserializeErrorPayload reads the graphql errors carried by an 'error' message.
func (g *GraphQLTransportWSMessageReader) DeserializeErrorPayload(message *GraphQLTransportWSMessage) (graphql.RequestErrors, error) {
	var requestErrors graphql.RequestErrors
	err := json.Unmarshal(message.Payload, &requestErrors)
	if err != nil {
		g.logger.Error("websocket.GraphQLTransportWSMessageReader.DeserializeErrorPayload: on error payload deserialization",
			abstractlogger.Error(err),
			abstractlogger.ByteString("payload", message.Payload),
		)
		return nil, err
	}

	return requestErrors, nil
}

// GraphQLTransportWSMessageWriter can be used to write graphql-transport-ws messages to a transport client.
type GraphQLTransportWSMessageWriter struct {
	logger abstractlogger.Logger
	client subscription.TransportClient
	mu     *sync.Mutex
}

// WriteConnectionInit writes a message of type 'connection_init' to the transport client. Payload is optional.
func (g *GraphQLTransportWSMessageWriter) WriteConnectionInit(payload []byte) error {
	message := &GraphQLTransportWSMessage{
		Type:    GraphQLTransportWSMessageTypeConnectionInit,
		Payload: payload,
	}
	return g.write(message)
}

// WritePing writes a message of type 'ping' to the transport client. Payload is optional.
func (g *GraphQLTransportWSMessageWriter) WritePing(payload []byte) error {
	message := &GraphQLTransportWSMessage{
		Type:    GraphQLTransportWSMessageTypePing,
		Payload: payload,
	}
	return g.write(message)
}

// WritePong writes a message of type 'pong' to the transport client. Payload is optional.
func (g *GraphQLTransportWSMessageWriter) WritePong(payload []byte) error {
	message := &GraphQLTransportWSMessage{
		Type:    GraphQLTransportWSMessageTypePong,
		Payload: payload,
	}
	return g.write(message)
}

// WriteSubscribe writes a message of type 'subscribe' to the transport client including the request as payload.
func (g *GraphQLTransportWSMessageWriter) WriteSubscribe(id string, request graphql.Request) error {
	payloadBytes, err := json.Marshal(request)
	if err != nil {
		return err
	}
	message := &GraphQLTransportWSMessage{
		Id:      id,
		Type:    GraphQLTransportWSMessageTypeSubscribe,
		Payload: payloadBytes,
	}
	return g.write(message)
}

// WriteComplete writes a message of type 'complete' to the transport client.
func (g *GraphQLTransportWSMessageWriter) WriteComplete(id string) error {
	message := &GraphQLTransportWSMessage{
		Id:   id,
		Type: GraphQLTransportWSMessageTypeComplete,
	}
	return g.write(message)
}

func (g *GraphQLTransportWSMessageWriter) write(message *GraphQLTransportWSMessage) error {
	jsonData, err := json.Marshal(message)
	if err != nil {
		g.logger.Error("websocket.GraphQLTransportWSMessageWriter.write: on json marshal",
			abstractlogger.Error(err),
			abstractlogger.String("id", message.Id),
			abstractlogger.String("type", string(message.Type)),
			abstractlogger.Any("payload", message.Payload),
		)
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.client.WriteBytesToServer(jsonData)
}

// ProtocolGraphQLTransportWSHandler is the client side of the graphql-transport-ws sub-protocol.
type ProtocolGraphQLTransportWSHandler struct {
	logger abstractlogger.Logger
	reader GraphQLTransportWSMessageReader
	writer GraphQLTransportWSMessageWriter
}

func NewProtocolGraphQLTransportWSHandler(client subscription.TransportClient) *ProtocolGraphQLTransportWSHandler {
	return NewProtocolGraphQLTransportWSHandlerWithLogger(client, abstractlogger.Noop{})
}

func NewProtocolGraphQLTransportWSHandlerWithLogger(client subscription.TransportClient, logger abstractlogger.Logger) *ProtocolGraphQLTransportWSHandler {
	if logger == nil {
		logger = abstractlogger.Noop{}
	}

	return &ProtocolGraphQLTransportWSHandler{
		logger: logger,
		reader: GraphQLTransportWSMessageReader{
			logger: logger,
		},
		writer: GraphQLTransportWSMessageWriter{
			logger: logger,
			client: client,
			mu:     &sync.Mutex{},
		},
	}
}

func (p *ProtocolGraphQLTransportWSHandler) Init(payload []byte) error {
	return p.writer.WriteConnectionInit(payload)
}

func (p *ProtocolGraphQLTransportWSHandler) Subscribe(id string, request graphql.Request) error {
	return p.writer.WriteSubscribe(id, request)
}

func (p *ProtocolGraphQLTransportWSHandler) Complete(id string) error {
	return p.writer.WriteComplete(id)
}

func (p *ProtocolGraphQLTransportWSHandler) Ping() error {
	return p.writer.WritePing(nil)
}

func (p *ProtocolGraphQLTransportWSHandler) Handle(ctx context.Context, data []byte, handler subscription.EventHandler) error {
	message, err := p.reader.Read(data)
	if err != nil {
		return err
	}

	switch message.Type {
	case GraphQLTransportWSMessageTypeConnectionAck:
		handler.Emit(subscription.EventTypeConnectionAck, "", message.Payload, nil)
	case GraphQLTransportWSMessageTypePing:
		return p.writer.WritePong(message.Payload)
	case GraphQLTransportWSMessageTypePong:
		p.logger.Debug("websocket.ProtocolGraphQLTransportWSHandler.Handle: on pong",
			abstractlogger.ByteString("payload", message.Payload),
		)
	case GraphQLTransportWSMessageTypeNext:
		handler.Emit(subscription.EventTypeData, message.Id, message.Payload, nil)
	case GraphQLTransportWSMessageTypeError:
		requestErrors, err := p.reader.DeserializeErrorPayload(message)
		if err != nil {
			handler.Emit(subscription.EventTypeError, message.Id, nil, err)
			return err
		}
		handler.Emit(subscription.EventTypeError, message.Id, nil, requestErrors)
	case GraphQLTransportWSMessageTypeComplete:
		handler.Emit(subscription.EventTypeCompleted, message.Id, nil, nil)
	default:
		return fmt.Errorf("%w: %s", ErrGraphQLTransportWSUnexpectedMessageType, message.Type)
	}

	return nil
}

var _ subscription.Protocol = (*ProtocolGraphQLTransportWSHandler)(nil)
