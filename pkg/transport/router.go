// Package transport decides which channel an operation travels on and
// dispatches it there.
package transport

import (
	"errors"
	"fmt"

	"github.com/chongma/gql-subscriptions-client/pkg/graphql"
)

var ErrInvalidRoutePredicate = errors.New("route predicate must send subscriptions and only subscriptions to the stream channel")

type Channel int

const (
	// RequestChannel carries one request and one response per operation.
	RequestChannel Channel = iota
	// StreamChannel carries a persistent connection delivering many events per operation.
	StreamChannel
)

func (c Channel) String() string {
	switch c {
	case RequestChannel:
		return "request"
	case StreamChannel:
		return "stream"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Predicate reports whether an operation belongs on the stream channel.
type Predicate func(descriptor graphql.OperationDescriptor) bool

// IsSubscription is the default predicate.
func IsSubscription(descriptor graphql.OperationDescriptor) bool {
	return descriptor.Type() == graphql.OperationTypeSubscription
}

type Router struct {
	predicate Predicate
}

// NewRouter checks predicate against every known operation type and refuses
// predicates that would misroute any of them.
func NewRouter(predicate Predicate) (*Router, error) {
	if predicate == nil {
		return nil, fmt.Errorf("%w: predicate is nil", ErrInvalidRoutePredicate)
	}

	for _, operationType := range graphql.OperationTypes {
		descriptor, err := graphql.NewOperationDescriptor(operationType, "")
		if err != nil {
			return nil, err
		}

		wantStream := operationType == graphql.OperationTypeSubscription
		if predicate(descriptor) != wantStream {
			return nil, fmt.Errorf("%w: %s routed to the wrong channel", ErrInvalidRoutePredicate, operationType)
		}
	}

	return &Router{predicate: predicate}, nil
}

// DefaultRouter returns a router using IsSubscription.
func DefaultRouter() *Router {
	return &Router{predicate: IsSubscription}
}

func (r *Router) Route(descriptor graphql.OperationDescriptor) Channel {
	if r.predicate(descriptor) {
		return StreamChannel
	}
	return RequestChannel
}
