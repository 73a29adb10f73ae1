package graphql

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	ErrInvalidResponse = errors.New("invalid graphql response")
	ErrFieldNotFound   = errors.New("field not found in response data")
)

// Response is an execution result as returned by HTTP or in a "next" message payload.
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors RequestErrors   `json:"errors,omitempty"`
}

func DecodeResponse(body []byte) (*Response, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidResponse
	}

	result := gjson.ParseBytes(body)
	if !result.IsObject() {
		return nil, ErrInvalidResponse
	}

	response := &Response{}
	if data := result.Get("data"); data.Exists() && data.Type != gjson.Null {
		response.Data = json.RawMessage(data.Raw)
	}

	if errs := result.Get("errors"); errs.Exists() && errs.IsArray() {
		if err := json.Unmarshal([]byte(errs.Raw), &response.Errors); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	if response.Data == nil && len(response.Errors) == 0 {
		return nil, ErrInvalidResponse
	}

	return response, nil
}

func (r *Response) HasErrors() bool {
	return len(r.Errors) > 0
}

// Field returns the raw JSON of a top level field of the response data.
// GraphQL errors take precedence over partial data.
func (r *Response) Field(name string) ([]byte, error) {
	if r.HasErrors() {
		return nil, r.Errors
	}

	field := gjson.GetBytes(r.Data, name)
	if !field.Exists() || field.Type == gjson.Null {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}

	return []byte(field.Raw), nil
}
