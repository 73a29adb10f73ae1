// Package posts is the Post domain: its GraphQL operations, the views that
// render posts and the page application that keeps them live.
package posts

import (
	"context"
	"encoding/json"
	"io"

	"github.com/jensneuse/abstractlogger"
	"github.com/tidwall/sjson"

	"github.com/chongma/gql-subscriptions-client/pkg/graphql"
	"github.com/chongma/gql-subscriptions-client/pkg/reconcile"
	"github.com/chongma/gql-subscriptions-client/pkg/subscription"
)

const (
	OperationPosts             = "Posts"
	OperationPost              = "Post"
	OperationUpdatePost        = "UpdatePost"
	OperationPostsPubSub       = "PostsPubSub"
	OperationPostPubSubWithArg = "PostPubSubWithArg"
)

const (
	postsQuery = `query Posts {
    posts {
        id
        body
    }
}`

	postQuery = `query Post($id:String!) {
    post(id:$id) {
        id
        body
    }
}`

	updatePostMutation = `mutation UpdatePost($id:String!, $body:String!) {
    updatePost(id:$id, body:$body) {
        id
        body
    }
}`

	postsPubSubSubscription = `subscription PostsPubSub {
    postsPubSub {
        id
        body
    }
}`

	postPubSubWithArgSubscription = `subscription PostPubSubWithArg($id:String!) {
    postPubSubWithArg(id:$id) {
        id
        body
    }
}`
)

// response data fields
const (
	fieldPosts             = "posts"
	fieldPost              = "post"
	fieldUpdatePost        = "updatePost"
	fieldPostsPubSub       = "postsPubSub"
	fieldPostPubSubWithArg = "postPubSubWithArg"
)

type Post struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// Executor runs operations on the channel their type belongs to. *transport.Split implements it.
type Executor interface {
	Execute(ctx context.Context, request graphql.Request) (*graphql.Response, error)
	Subscribe(ctx context.Context, request graphql.Request, observer subscription.Observer) (io.Closer, error)
}

type Client struct {
	executor Executor
	logger   abstractlogger.Logger
}

func NewClient(executor Executor, logger abstractlogger.Logger) *Client {
	if logger == nil {
		logger = abstractlogger.Noop{}
	}
	return &Client{
		executor: executor,
		logger:   logger,
	}
}

func PostsRequest() graphql.Request {
	return graphql.Request{OperationName: OperationPosts, Query: postsQuery}
}

func PostRequest(id string) (graphql.Request, error) {
	variables, err := sjson.SetBytes([]byte(`{}`), "id", id)
	if err != nil {
		return graphql.Request{}, err
	}
	return graphql.Request{OperationName: OperationPost, Query: postQuery, Variables: variables}, nil
}

func UpdatePostRequest(id, body string) (graphql.Request, error) {
	variables, err := sjson.SetBytes([]byte(`{}`), "id", id)
	if err != nil {
		return graphql.Request{}, err
	}
	variables, err = sjson.SetBytes(variables, "body", body)
	if err != nil {
		return graphql.Request{}, err
	}
	return graphql.Request{OperationName: OperationUpdatePost, Query: updatePostMutation, Variables: variables}, nil
}

func PostsPubSubRequest() graphql.Request {
	return graphql.Request{OperationName: OperationPostsPubSub, Query: postsPubSubSubscription}
}

func PostPubSubWithArgRequest(id string) (graphql.Request, error) {
	variables, err := sjson.SetBytes([]byte(`{}`), "id", id)
	if err != nil {
		return graphql.Request{}, err
	}
	return graphql.Request{OperationName: OperationPostPubSubWithArg, Query: postPubSubWithArgSubscription, Variables: variables}, nil
}

// FetchAll returns every post. Failures are *graphql.FetchError.
func (c *Client) FetchAll(ctx context.Context) ([]Post, error) {
	response, err := c.executor.Execute(ctx, PostsRequest())
	if err != nil {
		return nil, err
	}

	var posts []Post
	if err := decodeField(response, fieldPosts, &posts); err != nil {
		return nil, &graphql.FetchError{Operation: OperationPosts, Err: err}
	}
	return posts, nil
}

// Fetch returns the post with the given id. Failures are *graphql.FetchError.
func (c *Client) Fetch(ctx context.Context, id string) (Post, error) {
	request, err := PostRequest(id)
	if err != nil {
		return Post{}, &graphql.FetchError{Operation: OperationPost, Err: err}
	}

	response, err := c.executor.Execute(ctx, request)
	if err != nil {
		return Post{}, err
	}

	var post Post
	if err := decodeField(response, fieldPost, &post); err != nil {
		return Post{}, &graphql.FetchError{Operation: OperationPost, Err: err}
	}
	return post, nil
}

// Update replaces the body of a post. Failures are *graphql.MutationError.
func (c *Client) Update(ctx context.Context, id, body string) (Post, error) {
	request, err := UpdatePostRequest(id, body)
	if err != nil {
		return Post{}, &graphql.MutationError{Operation: OperationUpdatePost, Err: err}
	}

	response, err := c.executor.Execute(ctx, request)
	if err != nil {
		return Post{}, err
	}

	var post Post
	if err := decodeField(response, fieldUpdatePost, &post); err != nil {
		return Post{}, &graphql.MutationError{Operation: OperationUpdatePost, Err: err}
	}
	return post, nil
}

// SubscribeAll delivers the full post list on every change. Payloads that cannot be
// decoded are reported to onError as *graphql.StreamError.
func (c *Client) SubscribeAll(ctx context.Context, onPosts func([]Post), onError func(error)) (io.Closer, error) {
	return c.OpenAll(ctx, subscription.Observer{
		Next: func(data []byte) {
			posts, err := DecodePostsEvent(data)
			if err != nil {
				c.report(onError, err)
				return
			}
			onPosts(posts)
		},
		Error: func(err error) {
			c.report(onError, err)
		},
	})
}

// Subscribe delivers the post with the given id on every change.
func (c *Client) Subscribe(ctx context.Context, id string, onPost func(Post), onError func(error)) (io.Closer, error) {
	return c.OpenPost(id)(ctx, subscription.Observer{
		Next: func(data []byte) {
			post, err := DecodePostEvent(data)
			if err != nil {
				c.report(onError, err)
				return
			}
			onPost(post)
		},
		Error: func(err error) {
			c.report(onError, err)
		},
	})
}

// OpenAll starts the post list subscription with raw payloads. It is a reconcile.OpenFunc.
func (c *Client) OpenAll(ctx context.Context, observer subscription.Observer) (io.Closer, error) {
	return c.executor.Subscribe(ctx, PostsPubSubRequest(), observer)
}

// OpenPost returns the OpenFunc of the subscription for a single post.
func (c *Client) OpenPost(id string) reconcile.OpenFunc {
	return func(ctx context.Context, observer subscription.Observer) (io.Closer, error) {
		request, err := PostPubSubWithArgRequest(id)
		if err != nil {
			return nil, &graphql.StreamError{Operation: OperationPostPubSubWithArg, Err: err}
		}
		return c.executor.Subscribe(ctx, request, observer)
	}
}

func (c *Client) report(onError func(error), err error) {
	if onError != nil {
		onError(err)
		return
	}
	c.logger.Error("posts.Client.report: on subscription event",
		abstractlogger.Error(err),
	)
}

// DecodePostsEvent reads the post list out of a PostsPubSub event payload.
func DecodePostsEvent(payload []byte) ([]Post, error) {
	var posts []Post
	if err := decodePayload(payload, fieldPostsPubSub, &posts); err != nil {
		return nil, &graphql.StreamError{Operation: OperationPostsPubSub, Err: err}
	}
	return posts, nil
}

// DecodePostEvent reads the post out of a PostPubSubWithArg event payload.
func DecodePostEvent(payload []byte) (Post, error) {
	var post Post
	if err := decodePayload(payload, fieldPostPubSubWithArg, &post); err != nil {
		return Post{}, &graphql.StreamError{Operation: OperationPostPubSubWithArg, Err: err}
	}
	return post, nil
}

func decodePayload(payload []byte, field string, out interface{}) error {
	response, err := graphql.DecodeResponse(payload)
	if err != nil {
		return err
	}
	return decodeField(response, field, out)
}

func decodeField(response *graphql.Response, field string, out interface{}) error {
	raw, err := response.Field(field)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
