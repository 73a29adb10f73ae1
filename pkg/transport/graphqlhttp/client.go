// Package graphqlhttp is the request channel: GraphQL over HTTP POST.
package graphqlhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/jensneuse/abstractlogger"

	"github.com/chongma/gql-subscriptions-client/pkg/graphql"
	"github.com/chongma/gql-subscriptions-client/pkg/transport"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultRetryWaitMin = 100 * time.Millisecond
	DefaultRetryWaitMax = 2 * time.Second
)

var ErrUnexpectedStatus = errors.New("unexpected http status")

type Options struct {
	Logger         abstractlogger.Logger
	Timeout        time.Duration
	RetryMax       int
	RetryWaitMin   time.Duration
	RetryWaitMax   time.Duration
	HeaderModifier transport.HeaderModifier
}

// Client posts GraphQL requests to one endpoint.
type Client struct {
	logger abstractlogger.Logger
	resty  *resty.Client
	url    string
}

func NewClient(url string, options Options) *Client {
	if options.Logger == nil {
		options.Logger = abstractlogger.Noop{}
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.RetryWaitMin <= 0 {
		options.RetryWaitMin = DefaultRetryWaitMin
	}
	if options.RetryWaitMax < options.RetryWaitMin {
		options.RetryWaitMax = DefaultRetryWaitMax
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = options.RetryMax
	retryClient.RetryWaitMin = options.RetryWaitMin
	retryClient.RetryWaitMax = options.RetryWaitMax
	retryClient.CheckRetry = retryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = &leveledLogger{logger: options.Logger}

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(options.Timeout).
		SetLogger(&restyLogger{logger: options.Logger}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if options.HeaderModifier != nil {
		modifier := options.HeaderModifier
		restyClient.OnBeforeRequest(func(_ *resty.Client, request *resty.Request) error {
			modifier(request.Header)
			return nil
		})
	}

	return &Client{
		logger: options.Logger,
		resty:  restyClient,
		url:    url,
	}
}

// Do posts request and decodes the GraphQL response. A response carrying GraphQL
// errors is returned without error; the caller decides what they mean.
func (c *Client) Do(ctx context.Context, request graphql.Request) (*graphql.Response, error) {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(request).
		Post(c.url)
	if err != nil {
		c.logger.Error("graphqlhttp.Client.Do: on post",
			abstractlogger.String("url", c.url),
			abstractlogger.String("operationName", request.OperationName),
			abstractlogger.Error(err),
		)
		return nil, err
	}

	if resp.IsError() {
		// servers answer invalid operations with 4xx and a regular errors body
		if response, decodeErr := graphql.DecodeResponse(resp.Body()); decodeErr == nil && response.HasErrors() {
			return response, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status())
	}

	response, err := graphql.DecodeResponse(resp.Body())
	if err != nil {
		c.logger.Error("graphqlhttp.Client.Do: on decoding response",
			abstractlogger.String("operationName", request.OperationName),
			abstractlogger.ByteString("body", resp.Body()),
			abstractlogger.Error(err),
		)
		return nil, err
	}

	return response, nil
}

// retryPolicy retries connection failures and gateway errors only, so a mutation
// the server already processed is not sent twice.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	default:
		return false, nil
	}
}

var _ transport.Requester = (*Client)(nil)
