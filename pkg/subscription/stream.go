package subscription

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jensneuse/abstractlogger"
	"go.uber.org/atomic"

	"github.com/chongma/gql-subscriptions-client/pkg/graphql"
)

type StreamOptions struct {
	Logger abstractlogger.Logger
	// InitPayload is sent as the payload of the connection init message.
	InitPayload []byte
	// KeepAliveInterval enables client pings when greater than zero.
	KeepAliveInterval time.Duration
}

// Stream multiplexes any number of subscriptions over one persistent connection.
type Stream struct {
	logger            abstractlogger.Logger
	client            TransportClient
	protocol          Protocol
	initPayload       []byte
	keepAliveInterval time.Duration

	nextID  *atomic.Uint64
	closing *atomic.Bool

	mu            sync.Mutex
	subscriptions map[string]*Subscription

	ackOnce sync.Once
	acked   chan struct{}
	done    chan struct{}
}

func NewStream(client TransportClient, protocol Protocol) *Stream {
	return NewStreamWithOptions(client, protocol, StreamOptions{})
}

func NewStreamWithOptions(client TransportClient, protocol Protocol, options StreamOptions) *Stream {
	stream := &Stream{
		logger:            abstractlogger.Noop{},
		client:            client,
		protocol:          protocol,
		initPayload:       options.InitPayload,
		keepAliveInterval: options.KeepAliveInterval,
		nextID:            atomic.NewUint64(0),
		closing:           atomic.NewBool(false),
		subscriptions:     make(map[string]*Subscription),
		acked:             make(chan struct{}),
		done:              make(chan struct{}),
	}

	if options.Logger != nil {
		stream.logger = options.Logger
	}

	return stream
}

// Run performs the connection handshake and reads from the server until the
// connection is closed or ctx is done. It blocks.
func (s *Stream) Run(ctx context.Context) error {
	var terminalErr error
	defer func() {
		s.terminate(terminalErr)
	}()

	go func() {
		select {
		case <-ctx.Done():
			if err := s.Close(); err != nil {
				s.logger.Error("subscription.Stream.Run: on context done",
					abstractlogger.Error(err),
				)
			}
		case <-s.done:
		}
	}()

	if err := s.protocol.Init(s.initPayload); err != nil {
		s.logger.Error("subscription.Stream.Run: on protocol init",
			abstractlogger.Error(err),
		)
		terminalErr = err
		return err
	}

	if s.keepAliveInterval > 0 {
		go s.keepAlive()
	}

	for {
		if !s.client.IsConnected() {
			s.logger.Debug("subscription.Stream.Run: on client is connected check",
				abstractlogger.String("message", "server connection is closed"),
			)
			if !s.closing.Load() {
				terminalErr = ErrTransportClientClosedConnection
			}
			return terminalErr
		}

		message, err := s.client.ReadBytesFromServer()
		if err != nil {
			if s.closing.Load() {
				return nil
			}

			s.logger.Error("subscription.Stream.Run: on reading bytes from server",
				abstractlogger.Error(err),
				abstractlogger.ByteString("message", message),
			)

			s.Emit(EventTypeConnectionError, "", nil, ErrCouldNotReadMessageFromServer)
			terminalErr = err
			return err
		} else if len(message) > 0 {
			err := s.protocol.Handle(ctx, message, s)
			if err != nil {
				s.logger.Error("subscription.Stream.Run: on protocol handling message",
					abstractlogger.Error(err),
				)
			}
		}

		select {
		case <-ctx.Done():
			return s.Close()
		default:
			continue
		}
	}
}

// Subscribe starts the operation on the stream once the server acknowledged the connection.
// Observer callbacks run on the stream's read goroutine.
func (s *Stream) Subscribe(ctx context.Context, request graphql.Request, observer Observer) (*Subscription, error) {
	select {
	case <-s.acked:
	case <-s.done:
		return nil, ErrStreamClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	subscription := &Subscription{
		id:        strconv.FormatUint(s.nextID.Inc(), 10),
		operation: request.OperationName,
		observer:  observer,
		stream:    s,
		closed:    atomic.NewBool(false),
	}

	s.mu.Lock()
	s.subscriptions[subscription.id] = subscription
	s.mu.Unlock()

	if s.closing.Load() {
		s.remove(subscription.id)
		return nil, ErrStreamClosed
	}

	if err := s.protocol.Subscribe(subscription.id, request); err != nil {
		s.remove(subscription.id)
		s.logger.Error("subscription.Stream.Subscribe: on protocol subscribe",
			abstractlogger.Error(err),
			abstractlogger.String("id", subscription.id),
			abstractlogger.String("operation", request.OperationName),
		)
		return nil, &graphql.StreamError{Operation: request.OperationName, ID: subscription.id, Err: err}
	}

	return subscription, nil
}

// Close completes every active subscription and disconnects. It is safe to call more than once.
func (s *Stream) Close() error {
	if !s.closing.CAS(false, true) {
		return nil
	}

	for _, subscription := range s.active() {
		if subscription.closed.CAS(false, true) {
			if err := s.protocol.Complete(subscription.id); err != nil {
				s.logger.Debug("subscription.Stream.Close: on completing subscription",
					abstractlogger.String("id", subscription.id),
					abstractlogger.Error(err),
				)
			}
		}
	}

	if !s.client.IsConnected() {
		return nil
	}
	return s.client.Disconnect()
}

// Done is closed when Run has returned.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Emit dispatches protocol events to the observers of the addressed subscription.
func (s *Stream) Emit(eventType EventType, id string, data []byte, err error) {
	switch eventType {
	case EventTypeConnectionAck:
		s.ackOnce.Do(func() {
			close(s.acked)
		})
	case EventTypeData:
		if subscription, ok := s.lookup(id); ok {
			subscription.observer.next(data)
		} else {
			s.logger.Debug("subscription.Stream.Emit: on data for unknown subscription",
				abstractlogger.String("id", id),
			)
		}
	case EventTypeError:
		if subscription, ok := s.lookup(id); ok {
			s.remove(id)
			subscription.closed.Store(true)
			subscription.observer.error(&graphql.StreamError{Operation: subscription.operation, ID: id, Err: err})
		}
	case EventTypeCompleted:
		if subscription, ok := s.lookup(id); ok {
			s.remove(id)
			subscription.closed.Store(true)
			subscription.observer.complete()
		}
	case EventTypeConnectionTerminate:
		s.logger.Debug("subscription.Stream.Emit: on connection terminate",
			abstractlogger.Error(err),
		)
		for _, subscription := range s.active() {
			s.remove(subscription.id)
			if subscription.closed.CAS(false, true) {
				subscription.observer.error(&graphql.StreamError{Operation: subscription.operation, ID: subscription.id, Err: ErrConnectionTerminated})
			}
		}
		if disconnectErr := s.client.Disconnect(); disconnectErr != nil {
			s.logger.Error("subscription.Stream.Emit: on disconnect after terminate",
				abstractlogger.Error(disconnectErr),
			)
		}
	case EventTypeConnectionError:
		s.logger.Error("subscription.Stream.Emit: on connection error",
			abstractlogger.Error(err),
		)
	}
}

func (s *Stream) keepAlive() {
	ticker := time.NewTicker(s.keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.protocol.Ping(); err != nil {
				s.logger.Error("subscription.Stream.keepAlive: on ping",
					abstractlogger.Error(err),
				)
			}
		}
	}
}

// terminate reports an unexpected end of the connection to every active subscription.
func (s *Stream) terminate(cause error) {
	active := s.active()

	s.mu.Lock()
	s.subscriptions = make(map[string]*Subscription)
	s.mu.Unlock()

	notify := !s.closing.Load()
	if cause == nil {
		cause = ErrStreamClosed
	}

	for _, subscription := range active {
		if subscription.closed.CAS(false, true) && notify {
			subscription.observer.error(&graphql.StreamError{Operation: subscription.operation, ID: subscription.id, Err: cause})
		}
	}

	s.closing.Store(true)
	close(s.done)
}

func (s *Stream) lookup(id string) (*Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subscription, ok := s.subscriptions[id]
	return subscription, ok
}

func (s *Stream) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscriptions, id)
}

func (s *Stream) active() []*Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]*Subscription, 0, len(s.subscriptions))
	for _, subscription := range s.subscriptions {
		active = append(active, subscription)
	}
	return active
}

// Subscription is one operation running on a Stream.
type Subscription struct {
	id        string
	operation string
	observer  Observer
	stream    *Stream
	closed    *atomic.Bool
}

func (s *Subscription) ID() string {
	return s.id
}

// Close stops event delivery and tells the server to stop the operation. It is idempotent.
func (s *Subscription) Close() error {
	if !s.closed.CAS(false, true) {
		return nil
	}

	s.stream.remove(s.id)
	if s.stream.closing.Load() {
		return nil
	}
	return s.stream.protocol.Complete(s.id)
}
