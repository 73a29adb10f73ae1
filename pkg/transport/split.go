package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jensneuse/abstractlogger"

	"github.com/chongma/gql-subscriptions-client/pkg/graphql"
	"github.com/chongma/gql-subscriptions-client/pkg/subscription"
)

var (
	ErrWrongChannel       = errors.New("operation belongs to another channel")
	ErrChannelUnavailable = errors.New("channel is not configured")
)

// Requester is the request channel: one request, one response.
type Requester interface {
	Do(ctx context.Context, request graphql.Request) (*graphql.Response, error)
}

// Subscriber is the stream channel: one operation, many events until closed.
type Subscriber interface {
	Subscribe(ctx context.Context, request graphql.Request, observer subscription.Observer) (io.Closer, error)
}

type streamSubscriber struct {
	stream *subscription.Stream
}

// StreamSubscriber exposes a subscription.Stream as a Subscriber.
func StreamSubscriber(stream *subscription.Stream) Subscriber {
	return streamSubscriber{stream: stream}
}

func (s streamSubscriber) Subscribe(ctx context.Context, request graphql.Request, observer subscription.Observer) (io.Closer, error) {
	sub, err := s.stream.Subscribe(ctx, request, observer)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

type SplitOptions struct {
	Logger abstractlogger.Logger
	Router *Router
	Cache  *graphql.DescriptorCache
}

// Split sends every operation to the channel its router chooses. It holds no
// package level state; each client owns its own Split.
type Split struct {
	logger    abstractlogger.Logger
	router    *Router
	cache     *graphql.DescriptorCache
	requester Requester
	streamer  Subscriber
}

func NewSplit(requester Requester, streamer Subscriber, options SplitOptions) (*Split, error) {
	split := &Split{
		logger:    options.Logger,
		router:    options.Router,
		cache:     options.Cache,
		requester: requester,
		streamer:  streamer,
	}

	if split.logger == nil {
		split.logger = abstractlogger.Noop{}
	}
	if split.router == nil {
		split.router = DefaultRouter()
	}
	if split.cache == nil {
		cache, err := graphql.NewDescriptorCache(graphql.DefaultDescriptorCacheSize)
		if err != nil {
			return nil, err
		}
		split.cache = cache
	}

	return split, nil
}

// Execute runs a query or mutation on the request channel. Failures come back as
// *graphql.FetchError or *graphql.MutationError.
func (s *Split) Execute(ctx context.Context, request graphql.Request) (*graphql.Response, error) {
	descriptor, err := s.route(&request, RequestChannel)
	if err != nil {
		return nil, err
	}

	if s.requester == nil {
		return nil, graphql.WrapRequestChannelError(descriptor, ErrChannelUnavailable)
	}

	response, err := s.requester.Do(ctx, request)
	if err != nil {
		s.logger.Error("transport.Split.Execute: on request channel",
			abstractlogger.String("operation", descriptor.String()),
			abstractlogger.Error(err),
		)
		return nil, graphql.WrapRequestChannelError(descriptor, err)
	}

	if response.HasErrors() {
		return response, graphql.WrapRequestChannelError(descriptor, response.Errors)
	}

	return response, nil
}

// Subscribe starts a subscription on the stream channel. Closing the returned
// io.Closer stops delivery.
func (s *Split) Subscribe(ctx context.Context, request graphql.Request, observer subscription.Observer) (io.Closer, error) {
	descriptor, err := s.route(&request, StreamChannel)
	if err != nil {
		return nil, err
	}

	if s.streamer == nil {
		return nil, &graphql.StreamError{Operation: descriptor.Name(), Err: ErrChannelUnavailable}
	}

	closer, err := s.streamer.Subscribe(ctx, request, observer)
	if err != nil {
		var streamErr *graphql.StreamError
		if errors.As(err, &streamErr) {
			return nil, err
		}
		return nil, &graphql.StreamError{Operation: descriptor.Name(), Err: err}
	}

	return closer, nil
}

func (s *Split) Route(request graphql.Request) (Channel, error) {
	descriptor, err := s.cache.Descriptor(&request)
	if err != nil {
		return RequestChannel, err
	}
	return s.router.Route(descriptor), nil
}

func (s *Split) route(request *graphql.Request, want Channel) (graphql.OperationDescriptor, error) {
	descriptor, err := s.cache.Descriptor(request)
	if err != nil {
		s.logger.Error("transport.Split.route: on parsing operation",
			abstractlogger.String("operationName", request.OperationName),
			abstractlogger.Error(err),
		)
		return graphql.OperationDescriptor{}, err
	}

	if channel := s.router.Route(descriptor); channel != want {
		return descriptor, fmt.Errorf("%w: %s uses the %s channel", ErrWrongChannel, descriptor, channel)
	}

	return descriptor, nil
}
