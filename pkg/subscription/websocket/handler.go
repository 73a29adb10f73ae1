package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gobwas/ws"
	"github.com/jensneuse/abstractlogger"

	"github.com/chongma/gql-subscriptions-client/pkg/subscription"
)

type Protocol string

const (
	ProtocolGraphQLWS          Protocol = "graphql-ws"
	ProtocolGraphQLTransportWS Protocol = "graphql-transport-ws"
)

var DefaultProtocol Protocol = ProtocolGraphQLTransportWS

var ErrUnsupportedProtocol = errors.New("unsupported websocket sub-protocol")

func ParseProtocol(name string) (Protocol, error) {
	switch Protocol(name) {
	case "":
		return DefaultProtocol, nil
	case ProtocolGraphQLWS, ProtocolGraphQLTransportWS:
		return Protocol(name), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProtocol, name)
	}
}

type DialOptions struct {
	Logger            abstractlogger.Logger
	Protocol          Protocol
	Header            http.Header
	InitPayload       []byte
	KeepAliveInterval time.Duration
	DialTimeout       time.Duration
}

type DialOptionFunc func(opts *DialOptions)

func WithLogger(logger abstractlogger.Logger) DialOptionFunc {
	return func(opts *DialOptions) {
		opts.Logger = logger
	}
}

func WithProtocol(protocol Protocol) DialOptionFunc {
	return func(opts *DialOptions) {
		opts.Protocol = protocol
	}
}

func WithHeader(header http.Header) DialOptionFunc {
	return func(opts *DialOptions) {
		opts.Header = header
	}
}

func WithInitPayload(payload []byte) DialOptionFunc {
	return func(opts *DialOptions) {
		opts.InitPayload = payload
	}
}

func WithKeepAliveInterval(keepAliveInterval time.Duration) DialOptionFunc {
	return func(opts *DialOptions) {
		opts.KeepAliveInterval = keepAliveInterval
	}
}

func WithDialTimeout(timeout time.Duration) DialOptionFunc {
	return func(opts *DialOptions) {
		opts.DialTimeout = timeout
	}
}

// Dial opens a websocket connection to url and returns a stream that is ready to Run.
func Dial(ctx context.Context, url string, options ...DialOptionFunc) (*subscription.Stream, error) {
	definedOptions := DialOptions{
		Logger:   abstractlogger.Noop{},
		Protocol: DefaultProtocol,
	}

	for _, optionFunc := range options {
		optionFunc(&definedOptions)
	}

	return DialWithOptions(ctx, url, definedOptions)
}

func DialWithOptions(ctx context.Context, url string, options DialOptions) (*subscription.Stream, error) {
	// Use noop logger to prevent nil pointers if none was provided
	if options.Logger == nil {
		options.Logger = abstractlogger.Noop{}
	}
	if options.Protocol == "" {
		options.Protocol = DefaultProtocol
	}

	dialer := ws.Dialer{
		Protocols: []string{string(options.Protocol)},
		Timeout:   options.DialTimeout,
	}
	if len(options.Header) > 0 {
		dialer.Header = ws.HandshakeHeaderHTTP(options.Header)
	}

	conn, reader, _, err := dialer.Dial(ctx, url)
	if err != nil {
		options.Logger.Error("websocket.DialWithOptions: on dial",
			abstractlogger.String("url", url),
			abstractlogger.Error(err),
		)
		if errors.Is(err, ws.ErrHandshakeBadSubProtocol) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedProtocol, err)
		}
		return nil, err
	}

	if reader != nil {
		conn = &bufferedConn{Conn: conn, reader: reader}
	}

	client := NewClient(options.Logger, conn)
	return NewStream(client, options), nil
}

// NewStream builds a stream speaking options.Protocol over an established client.
func NewStream(client subscription.TransportClient, options DialOptions) *subscription.Stream {
	var protocol subscription.Protocol
	switch options.Protocol {
	case ProtocolGraphQLWS:
		protocol = NewProtocolGraphQLWSHandlerWithLogger(client, options.Logger)
	default:
		protocol = NewProtocolGraphQLTransportWSHandlerWithLogger(client, options.Logger)
	}

	return subscription.NewStreamWithOptions(client, protocol, subscription.StreamOptions{
		Logger:            options.Logger,
		InitPayload:       options.InitPayload,
		KeepAliveInterval: options.KeepAliveInterval,
	})
}
