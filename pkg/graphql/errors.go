package graphql

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Location struct {
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

type RequestError struct {
	Message   string          `json:"message"`
	Locations []Location      `json:"locations,omitempty"`
	Path      json.RawMessage `json:"path,omitempty"`
}

func (r RequestError) Error() string {
	return r.Message
}

// RequestErrors is the "errors" list of a GraphQL response.
type RequestErrors []RequestError

func RequestErrorsFromError(err error) RequestErrors {
	if errs, ok := err.(RequestErrors); ok {
		return errs
	}
	return RequestErrors{{Message: err.Error()}}
}

func (r RequestErrors) Error() string {
	messages := make([]string, 0, len(r))
	for i := range r {
		messages = append(messages, r[i].Message)
	}
	return strings.Join(messages, ", ")
}

func (r RequestErrors) Count() int {
	return len(r)
}

// FetchError is returned when a query over the request channel fails.
type FetchError struct {
	Operation string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Operation, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MutationError is returned when a mutation over the request channel fails.
type MutationError struct {
	Operation string
	Err       error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("mutation %s: %v", e.Operation, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// StreamError is reported when an active subscription's channel fails.
type StreamError struct {
	Operation string
	ID        string
	Err       error
}

func (e *StreamError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("stream %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("stream %s (%s): %v", e.Operation, e.ID, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// WrapRequestChannelError wraps err into the error type matching the operation type.
func WrapRequestChannelError(descriptor OperationDescriptor, err error) error {
	if descriptor.Type() == OperationTypeMutation {
		return &MutationError{Operation: descriptor.Name(), Err: err}
	}
	return &FetchError{Operation: descriptor.Name(), Err: err}
}
