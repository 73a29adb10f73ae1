package posts

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type subscribeMessage struct {
	id            string
	operationName string
	postID        string
}

func (s subscribeMessage) key() string {
	return s.operationName + ":" + s.postID
}

// fakeGraphQLServer serves the posts schema over HTTP and graphql-transport-ws.
// Updates are pushed to matching subscriptions like a real server would.
type fakeGraphQLServer struct {
	t      *testing.T
	server *httptest.Server

	mu             sync.Mutex
	posts          []Post
	failPosts      map[string]bool
	failAll        bool
	authorizations []string
	active         map[string]subscribeMessage
	holds          map[string]chan struct{}

	initPayloads chan string
	subscribed   chan subscribeMessage
	completed    chan string
	held         chan string

	connMu sync.Mutex
	conn   *gorillaws.Conn
}

func newFakeGraphQLServer(t *testing.T, seed []Post) *fakeGraphQLServer {
	t.Helper()

	f := &fakeGraphQLServer{
		t:            t,
		posts:        append([]Post(nil), seed...),
		failPosts:    make(map[string]bool),
		active:       make(map[string]subscribeMessage),
		holds:        make(map[string]chan struct{}),
		held:         make(chan string, 8),
		initPayloads: make(chan string, 1),
		subscribed:   make(chan subscribeMessage, 32),
		completed:    make(chan string, 32),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", f.serveHTTP)
	mux.HandleFunc("/subscriptions", f.serveWebsocket)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeGraphQLServer) httpURL() string {
	return f.server.URL + "/graphql"
}

func (f *fakeGraphQLServer) wsURL() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "/subscriptions"
}

func (f *fakeGraphQLServer) failPost(id string) {
	f.mu.Lock()
	f.failPosts[id] = true
	f.mu.Unlock()
}

// holdPost keeps the Post query for id unanswered until release is called.
func (f *fakeGraphQLServer) holdPost(id string) (release func()) {
	hold := make(chan struct{})
	f.mu.Lock()
	f.holds[id] = hold
	f.mu.Unlock()

	once := sync.Once{}
	release = func() {
		once.Do(func() { close(hold) })
	}
	f.t.Cleanup(release)
	return release
}

func (f *fakeGraphQLServer) failEverything() {
	f.mu.Lock()
	f.failAll = true
	f.mu.Unlock()
}

func (f *fakeGraphQLServer) seenAuthorizations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authorizations...)
}

func (f *fakeGraphQLServer) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if !assert.NoError(f.t, err) {
		return
	}

	operationName := gjson.GetBytes(body, "operationName").String()
	id := gjson.GetBytes(body, "variables.id").String()

	f.mu.Lock()
	f.authorizations = append(f.authorizations, r.Header.Get("Authorization"))
	failAll := f.failAll
	failPost := f.failPosts[id]
	hold := f.holds[id]
	f.mu.Unlock()

	if hold != nil && operationName == OperationPost {
		f.held <- id
		<-hold
	}

	w.Header().Set("Content-Type", "application/json")
	if failAll {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors":[{"message":"database unavailable"}]}`))
		return
	}

	var response []byte
	switch operationName {
	case OperationPosts:
		response, err = sjson.SetBytes([]byte(`{}`), "data.posts", f.snapshot())
	case OperationPost:
		post, ok := f.find(id)
		if !ok || failPost {
			response = []byte(`{"errors":[{"message":"post not found","path":["post"]}],"data":{"post":null}}`)
			break
		}
		response, err = sjson.SetBytes([]byte(`{}`), "data.post", post)
	case OperationUpdatePost:
		post, ok := f.update(id, gjson.GetBytes(body, "variables.body").String())
		if !ok {
			response = []byte(`{"errors":[{"message":"post not found","path":["updatePost"]}],"data":{"updatePost":null}}`)
			break
		}
		response, err = sjson.SetBytes([]byte(`{}`), "data.updatePost", post)
		defer f.publish(post)
	default:
		w.WriteHeader(http.StatusBadRequest)
		response = []byte(`{"errors":[{"message":"unknown operation"}]}`)
	}
	if !assert.NoError(f.t, err) {
		return
	}

	_, _ = w.Write(response)
}

func (f *fakeGraphQLServer) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := gorillaws.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	header := http.Header{}
	header.Set("Sec-WebSocket-Protocol", "graphql-transport-ws")
	conn, err := upgrader.Upgrade(w, r, header)
	if err != nil {
		return
	}
	defer conn.Close()

	_, message, err := conn.ReadMessage()
	if err != nil {
		return
	}
	assert.Equal(f.t, "connection_init", gjson.GetBytes(message, "type").String())
	select {
	case f.initPayloads <- gjson.GetBytes(message, "payload").Raw:
	default:
	}

	f.connMu.Lock()
	f.conn = conn
	err = conn.WriteMessage(gorillaws.TextMessage, []byte(`{"type":"connection_ack"}`))
	f.connMu.Unlock()
	if err != nil {
		return
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		id := gjson.GetBytes(message, "id").String()
		switch gjson.GetBytes(message, "type").String() {
		case "subscribe":
			subscribe := subscribeMessage{
				id:            id,
				operationName: gjson.GetBytes(message, "payload.operationName").String(),
				postID:        gjson.GetBytes(message, "payload.variables.id").String(),
			}
			f.mu.Lock()
			f.active[id] = subscribe
			f.mu.Unlock()
			f.subscribed <- subscribe
		case "complete":
			f.mu.Lock()
			delete(f.active, id)
			f.mu.Unlock()
			f.completed <- id
		case "ping":
			f.write([]byte(`{"type":"pong"}`))
		}
	}
}

// awaitSubscriptions waits for n subscribe messages and returns them by operation and post id.
func (f *fakeGraphQLServer) awaitSubscriptions(t *testing.T, n int) map[string]subscribeMessage {
	t.Helper()

	subscriptions := make(map[string]subscribeMessage, n)
	for i := 0; i < n; i++ {
		select {
		case subscribe := <-f.subscribed:
			subscriptions[subscribe.key()] = subscribe
		case <-time.After(5 * time.Second):
			t.Fatalf("received %d of %d subscriptions", i, n)
		}
	}
	return subscriptions
}

func (f *fakeGraphQLServer) awaitCompletions(t *testing.T, n int) []string {
	t.Helper()

	var ids []string
	for i := 0; i < n; i++ {
		select {
		case id := <-f.completed:
			ids = append(ids, id)
		case <-time.After(5 * time.Second):
			t.Fatalf("received %d of %d completions", i, n)
		}
	}
	return ids
}

// next sends one event to the subscription with the given id.
func (f *fakeGraphQLServer) next(id string, payload string) {
	message, err := sjson.SetBytes([]byte(`{"type":"next"}`), "id", id)
	if !assert.NoError(f.t, err) {
		return
	}
	message, err = sjson.SetRawBytes(message, "payload", []byte(payload))
	if !assert.NoError(f.t, err) {
		return
	}
	f.write(message)
}

func (f *fakeGraphQLServer) publish(updated Post) {
	f.mu.Lock()
	active := make([]subscribeMessage, 0, len(f.active))
	for _, subscribe := range f.active {
		active = append(active, subscribe)
	}
	f.mu.Unlock()

	for _, subscribe := range active {
		var payload []byte
		var err error
		switch {
		case subscribe.operationName == OperationPostsPubSub:
			payload, err = sjson.SetBytes([]byte(`{}`), "data.postsPubSub", f.snapshot())
		case subscribe.operationName == OperationPostPubSubWithArg && subscribe.postID == updated.ID:
			payload, err = sjson.SetBytes([]byte(`{}`), "data.postPubSubWithArg", updated)
		default:
			continue
		}
		if assert.NoError(f.t, err) {
			f.next(subscribe.id, string(payload))
		}
	}
}

func (f *fakeGraphQLServer) write(message []byte) {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	if f.conn == nil {
		return
	}
	assert.NoError(f.t, f.conn.WriteMessage(gorillaws.TextMessage, message))
}

func (f *fakeGraphQLServer) snapshot() []Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	posts := make([]Post, len(f.posts))
	copy(posts, f.posts)
	return posts
}

func (f *fakeGraphQLServer) find(id string) (Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, post := range f.posts {
		if post.ID == id {
			return post, true
		}
	}
	return Post{}, false
}

func (f *fakeGraphQLServer) update(id, body string) (Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts[i].Body = body
			return f.posts[i], true
		}
	}
	return Post{}, false
}
