package cli

import (
	"context"

	"github.com/jensneuse/abstractlogger"

	"github.com/chongma/gql-subscriptions-client/pkg/config"
	"github.com/chongma/gql-subscriptions-client/pkg/subscription"
	"github.com/chongma/gql-subscriptions-client/pkg/subscription/websocket"
	"github.com/chongma/gql-subscriptions-client/pkg/transport"
	"github.com/chongma/gql-subscriptions-client/pkg/transport/graphqlhttp"
)

func newRequester(cfg config.Config, logger abstractlogger.Logger) *graphqlhttp.Client {
	return graphqlhttp.NewClient(cfg.HTTPURL, graphqlhttp.Options{
		Logger:         logger,
		Timeout:        cfg.RequestTimeout,
		RetryMax:       cfg.HTTPRetries,
		HeaderModifier: cfg.Credentials().Modifier(),
	})
}

// dialStream connects to the subscription endpoint. The returned stream still has to Run.
func dialStream(ctx context.Context, cfg config.Config, logger abstractlogger.Logger) (*subscription.Stream, error) {
	protocol, err := cfg.Protocol()
	if err != nil {
		return nil, err
	}

	initPayload, err := transport.InitPayload(cfg.Credentials().Modifier())
	if err != nil {
		return nil, err
	}

	return websocket.Dial(ctx, cfg.WSURL,
		websocket.WithLogger(logger),
		websocket.WithProtocol(protocol),
		websocket.WithInitPayload(initPayload),
		websocket.WithKeepAliveInterval(cfg.KeepAlive),
		websocket.WithDialTimeout(cfg.RequestTimeout),
	)
}
