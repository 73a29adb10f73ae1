package posts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/jensneuse/abstractlogger"
	"go.uber.org/atomic"

	"github.com/chongma/gql-subscriptions-client/pkg/eventloop"
	"github.com/chongma/gql-subscriptions-client/pkg/reconcile"
	"github.com/chongma/gql-subscriptions-client/pkg/sequence"
	"github.com/chongma/gql-subscriptions-client/pkg/view"
)

const (
	DefaultTitle = "postsview"
	ListSlotID   = "posts"
)

var (
	ErrAppStarted = errors.New("app already started")
	ErrAppStopped = errors.New("app stopped")
)

func PostSlotID(id string) string {
	return "post-" + id
}

type AppOptions struct {
	Logger abstractlogger.Logger
	Title  string
	Bodies BodyGenerator
}

// App is the posts page: the live post list followed by one live view per post.
// The document belongs to the event loop; App only touches it through loop tasks.
type App struct {
	logger     abstractlogger.Logger
	client     *Client
	loop       *eventloop.Loop
	reconciler *reconcile.Reconciler
	document   *view.Document
	bodies     BodyGenerator
	started    *atomic.Bool

	mu      sync.Mutex
	stopped bool
	targets []target
}

type stopper interface {
	Stop() error
}

// target is one sequence and the frame it renders into.
type target struct {
	sequence stopper
	frame    *reconcile.Frame
}

func NewApp(loop *eventloop.Loop, client *Client, options AppOptions) *App {
	if options.Logger == nil {
		options.Logger = abstractlogger.Noop{}
	}
	if options.Title == "" {
		options.Title = DefaultTitle
	}
	if options.Bodies == nil {
		options.Bodies = LoremBodies(nil)
	}

	return &App{
		logger:     options.Logger,
		client:     client,
		loop:       loop,
		reconciler: reconcile.New(loop, options.Logger),
		document:   view.NewDocument(options.Title),
		bodies:     options.Bodies,
		started:    atomic.NewBool(false),
	}
}

// Start shows the post list, subscribes to it and then runs one fetch-then-subscribe
// sequence per listed post. It returns once every sequence has settled. Only a failing
// list fetch is returned; a failing post stays local to its own view.
func (a *App) Start(ctx context.Context) error {
	if !a.started.CAS(false, true) {
		return ErrAppStarted
	}

	var slot *view.Slot
	err := a.loop.Do(ctx, func() {
		slot = a.document.NewSlot(ListSlotID)
	})
	if err != nil {
		return err
	}

	var fetched []Post
	frame := reconcile.NewFrame(slot)
	list := sequence.New[[]Post](a.loop, frame, a.logger, OperationPosts, sequence.Steps[[]Post]{
		Fetch: func(ctx context.Context) ([]Post, error) {
			posts, err := a.client.FetchAll(ctx)
			fetched = posts
			return posts, err
		},
		Render:    renderPosts,
		Subscribe: a.attach(frame, RenderPostsEvent, a.client.OpenAll),
	})
	if !a.track(list, frame) {
		return ErrAppStopped
	}

	if err := list.Run(ctx); err != nil {
		return err
	}

	return a.startPosts(ctx, fetched)
}

func (a *App) startPosts(ctx context.Context, posts []Post) error {
	slots := make([]*view.Slot, len(posts))
	err := a.loop.Do(ctx, func() {
		for i := range posts {
			slots[i] = a.document.NewSlot(PostSlotID(posts[i].ID))
		}
	})
	if err != nil {
		return err
	}

	wg := sync.WaitGroup{}
	for i := range posts {
		id := posts[i].ID
		frame := reconcile.NewFrame(slots[i])
		post := sequence.New[Post](a.loop, frame, a.logger, OperationPost, sequence.Steps[Post]{
			Fetch: func(ctx context.Context) (Post, error) {
				return a.client.Fetch(ctx, id)
			},
			Render:    renderPost,
			Subscribe: a.attach(frame, RenderPostEvent, a.client.OpenPost(id)),
		})
		if !a.track(post, frame) {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			// the sequence logs its own failure
			_ = post.Run(ctx)
		}()
	}
	wg.Wait()

	return nil
}

func (a *App) attach(frame *reconcile.Frame, render reconcile.RenderFunc, open reconcile.OpenFunc) func(ctx context.Context) (io.Closer, error) {
	return func(ctx context.Context) (io.Closer, error) {
		handle, err := a.reconciler.Attach(ctx, frame, render, open)
		if err != nil {
			return nil, err
		}
		return handle, nil
	}
}

// track registers the sequence for Stop. Once the app is stopped it stops the
// sequence instead and reports false.
func (a *App) track(s stopper, frame *reconcile.Frame) bool {
	a.mu.Lock()
	if !a.stopped {
		a.targets = append(a.targets, target{sequence: s, frame: frame})
		a.mu.Unlock()
		return true
	}
	a.mu.Unlock()

	if err := s.Stop(); err != nil {
		a.logger.Error("posts.App.track: on stopping sequence",
			abstractlogger.Error(err),
		)
	}
	return false
}

// UpdatePost writes a generated body into the post. The page changes only when the
// subscription delivers the update.
func (a *App) UpdatePost(ctx context.Context, id string) (Post, error) {
	post, err := a.client.Update(ctx, id, a.bodies())
	if err != nil {
		a.logger.Error("posts.App.UpdatePost: on mutation",
			abstractlogger.String("id", id),
			abstractlogger.Error(err),
		)
		return Post{}, err
	}

	a.logger.Info("posts.App.UpdatePost: mutated",
		abstractlogger.String("id", post.ID),
	)
	return post, nil
}

// Render writes the current page. The document is serialized on the event loop.
func (a *App) Render(ctx context.Context, w io.Writer) error {
	buf := bytes.Buffer{}
	var renderErr error
	err := a.loop.Do(ctx, func() {
		renderErr = a.document.Render(&buf)
	})
	if err != nil {
		return err
	}
	if renderErr != nil {
		return renderErr
	}

	_, err = buf.WriteTo(w)
	return err
}

// Stop ends every subscription and removes every view. It may run while Start is
// still in flight: sequences that have not rendered yet never do, and no sequence
// starts afterwards.
func (a *App) Stop() error {
	a.mu.Lock()
	a.stopped = true
	targets := a.targets
	a.targets = nil
	a.mu.Unlock()

	var firstErr error
	for _, t := range targets {
		if err := t.sequence.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.loop.Post(t.frame.Clear)
	}
	return firstErr
}
