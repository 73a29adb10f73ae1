package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jensneuse/abstractlogger"
	"github.com/spf13/cobra"

	"github.com/chongma/gql-subscriptions-client/pkg/eventloop"
	"github.com/chongma/gql-subscriptions-client/pkg/graphql"
	"github.com/chongma/gql-subscriptions-client/pkg/posts"
	"github.com/chongma/gql-subscriptions-client/pkg/subscription"
	"github.com/chongma/gql-subscriptions-client/pkg/transport"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions

	// Listener overrides the configured listen address (for testing).
	Listener net.Listener
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live posts page",
		Long: `Fetch the posts, subscribe to their changes and serve the page.

GET / returns the current page, POST /posts/{id} updates a post with a
generated body. When the subscription endpoint cannot be reached or the
connection drops, the page keeps serving the last state of every view.
On SIGINT or SIGTERM every subscription is completed before the
connection is closed.

Example:
  postsview serve --listen :8080
  POSTSVIEW_AUTH_TOKEN=secret postsview serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	logger := opts.Logger
	cfg := opts.Config

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the stream and the loop outlive ctx so that shutdown can complete subscriptions
	streamCtx, cancelStream := context.WithCancel(context.Background())
	defer cancelStream()
	streamDone := make(chan error, 1)

	// without a stream channel every view rests on its snapshot
	var subscriber transport.Subscriber
	stream, err := dialStream(ctx, cfg, logger)
	if err != nil {
		logger.Error("cli.runServe: on dialing subscriptions, serving snapshots only",
			abstractlogger.String("url", cfg.WSURL),
			abstractlogger.Error(err),
		)
	} else {
		subscriber = transport.StreamSubscriber(stream)
		go func() {
			streamDone <- stream.Run(streamCtx)
		}()
	}

	loopCtx, cancelLoop := context.WithCancel(context.Background())
	defer cancelLoop()
	loop := eventloop.New(logger)
	go loop.Run(loopCtx)

	split, err := transport.NewSplit(newRequester(cfg, logger), subscriber, transport.SplitOptions{
		Logger: logger,
	})
	if err != nil {
		return err
	}

	app := posts.NewApp(loop, posts.NewClient(split, logger), posts.AppOptions{
		Logger: logger,
	})

	listener := opts.Listener
	if listener == nil {
		listener, err = net.Listen("tcp", cfg.Listen)
		if err != nil {
			return err
		}
	}

	server := &http.Server{
		Handler:           posts.NewHandler(app, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Serve(listener)
	}()

	logger.Info("cli.runServe: serving",
		abstractlogger.String("addr", listener.Addr().String()),
		abstractlogger.String("http_url", cfg.HTTPURL),
		abstractlogger.String("ws_url", cfg.WSURL),
	)

	go func() {
		if err := app.Start(ctx); err != nil {
			logger.Error("cli.runServe: on starting posts",
				abstractlogger.Error(err),
			)
		}
	}()

	var runErr error
	for running := true; running; {
		select {
		case <-ctx.Done():
			logger.Info("cli.runServe: shutting down")
			running = false
		case err := <-serverDone:
			if !errors.Is(err, http.ErrServerClosed) {
				runErr = err
			}
			running = false
		case err := <-streamDone:
			// no reconnect, the page keeps the last state of every view
			streamDone = nil
			if err == nil {
				err = subscription.ErrStreamClosed
			}
			logger.Error("cli.runServe: on subscription stream ended",
				abstractlogger.Error(&graphql.StreamError{Err: err}),
			)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("cli.runServe: on http shutdown",
			abstractlogger.Error(err),
		)
	}
	if err := app.Stop(); err != nil {
		logger.Error("cli.runServe: on stopping posts",
			abstractlogger.Error(err),
		)
	}
	if stream != nil {
		if err := stream.Close(); err != nil {
			logger.Error("cli.runServe: on closing stream",
				abstractlogger.Error(err),
			)
		}

		select {
		case <-stream.Done():
		case <-shutdownCtx.Done():
		}
	}

	return runErr
}
