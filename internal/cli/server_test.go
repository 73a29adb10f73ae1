package cli

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

// fakeEndpoint answers the posts operations with an empty list and echoes updates.
type fakeEndpoint struct {
	t      *testing.T
	server *httptest.Server

	mu                 sync.Mutex
	authorizations     []string
	dropAfterSubscribe bool

	subscribed chan string
	completed  chan string
}

func newFakeEndpoint(t *testing.T) *fakeEndpoint {
	t.Helper()

	f := &fakeEndpoint{
		t:          t,
		subscribed: make(chan string, 8),
		completed:  make(chan string, 8),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", f.serveHTTP)
	mux.HandleFunc("/subscriptions", f.serveWebsocket)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeEndpoint) httpURL() string {
	return f.server.URL + "/graphql"
}

func (f *fakeEndpoint) wsURL() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "/subscriptions"
}

// dropConnections makes the endpoint close every websocket after its first subscribe.
func (f *fakeEndpoint) dropConnections() {
	f.mu.Lock()
	f.dropAfterSubscribe = true
	f.mu.Unlock()
}

func (f *fakeEndpoint) seenAuthorizations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authorizations...)
}

func (f *fakeEndpoint) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if !assert.NoError(f.t, err) {
		return
	}

	f.mu.Lock()
	f.authorizations = append(f.authorizations, r.Header.Get("Authorization"))
	f.mu.Unlock()

	var response []byte
	switch gjson.GetBytes(body, "operationName").String() {
	case "Posts":
		response = []byte(`{"data":{"posts":[]}}`)
	case "UpdatePost":
		response, err = sjson.SetRawBytes([]byte(`{}`), "data.updatePost", []byte(gjson.GetBytes(body, "variables").Raw))
	default:
		w.WriteHeader(http.StatusBadRequest)
		response = []byte(`{"errors":[{"message":"unknown operation"}]}`)
	}
	if !assert.NoError(f.t, err) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(response)
}

func (f *fakeEndpoint) serveWebsocket(w http.ResponseWriter, r *http.Request) {
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

	if _, _, err := conn.ReadMessage(); err != nil {
		return
	}
	if err := conn.WriteMessage(gorillaws.TextMessage, []byte(`{"type":"connection_ack"}`)); err != nil {
		return
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch gjson.GetBytes(message, "type").String() {
		case "subscribe":
			f.subscribed <- gjson.GetBytes(message, "payload.operationName").String()

			f.mu.Lock()
			drop := f.dropAfterSubscribe
			f.mu.Unlock()
			if drop {
				return
			}
		case "complete":
			f.completed <- gjson.GetBytes(message, "id").String()
		}
	}
}

func await(t *testing.T, c <-chan string, what string) string {
	t.Helper()

	select {
	case value := <-c:
		return value
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return ""
	}
}
