package graphql

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

var (
	ErrEmptyRequest         = errors.New("the provided request is empty")
	ErrOperationNotFound    = errors.New("operation not found in request document")
	ErrUnknownOperationType = errors.New("unknown operation type")
)

type OperationType int

const (
	OperationTypeUnknown OperationType = iota
	OperationTypeQuery
	OperationTypeMutation
	OperationTypeSubscription
)

// OperationTypes enumerates every operation type a request can carry.
var OperationTypes = []OperationType{
	OperationTypeQuery,
	OperationTypeMutation,
	OperationTypeSubscription,
}

func (o OperationType) String() string {
	switch o {
	case OperationTypeQuery:
		return string(ast.Query)
	case OperationTypeMutation:
		return string(ast.Mutation)
	case OperationTypeSubscription:
		return string(ast.Subscription)
	default:
		return "unknown"
	}
}

func (o OperationType) IsKnown() bool {
	for _, known := range OperationTypes {
		if o == known {
			return true
		}
	}
	return false
}

// Request is the body sent for every operation, over HTTP as well as inside a
// graphql-transport-ws subscribe message.
type Request struct {
	OperationName string          `json:"operationName,omitempty"`
	Variables     json.RawMessage `json:"variables,omitempty"`
	Query         string          `json:"query"`
}

func (r *Request) IsEmpty() bool {
	return r == nil || r.Query == ""
}

// OperationDescriptor identifies the operation a request will execute.
// It is a value type and never changes after parsing.
type OperationDescriptor struct {
	operationType OperationType
	name          string
}

func NewOperationDescriptor(operationType OperationType, name string) (OperationDescriptor, error) {
	if !operationType.IsKnown() {
		return OperationDescriptor{}, fmt.Errorf("%w: %d", ErrUnknownOperationType, operationType)
	}
	return OperationDescriptor{operationType: operationType, name: name}, nil
}

func (d OperationDescriptor) Type() OperationType {
	return d.operationType
}

func (d OperationDescriptor) Name() string {
	return d.name
}

func (d OperationDescriptor) String() string {
	if d.name == "" {
		return d.operationType.String()
	}
	return d.operationType.String() + " " + d.name
}

// ParseOperationDescriptor parses the request document and returns the descriptor of
// the operation selected by OperationName. An empty OperationName selects the only
// operation of the document.
func ParseOperationDescriptor(request *Request) (OperationDescriptor, error) {
	if request.IsEmpty() {
		return OperationDescriptor{}, ErrEmptyRequest
	}

	document, err := parser.ParseQuery(&ast.Source{Input: request.Query})
	if err != nil {
		return OperationDescriptor{}, err
	}

	operation := document.Operations.ForName(request.OperationName)
	if operation == nil {
		return OperationDescriptor{}, fmt.Errorf("%w: %q", ErrOperationNotFound, request.OperationName)
	}

	return NewOperationDescriptor(operationTypeFromAST(operation.Operation), operation.Name)
}

func operationTypeFromAST(operation ast.Operation) OperationType {
	switch operation {
	case ast.Query:
		return OperationTypeQuery
	case ast.Mutation:
		return OperationTypeMutation
	case ast.Subscription:
		return OperationTypeSubscription
	default:
		return OperationTypeUnknown
	}
}
