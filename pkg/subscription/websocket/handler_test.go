package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/chongma/gql-subscriptions-client/pkg/graphql"
	"github.com/chongma/gql-subscriptions-client/pkg/subscription"
)

func TestParseProtocol(t *testing.T) {
	t.Run("should default to graphql-transport-ws", func(t *testing.T) {
		protocol, err := ParseProtocol("")
		require.NoError(t, err)
		assert.Equal(t, ProtocolGraphQLTransportWS, protocol)
	})

	t.Run("should accept legacy graphql-ws", func(t *testing.T) {
		protocol, err := ParseProtocol("graphql-ws")
		require.NoError(t, err)
		assert.Equal(t, ProtocolGraphQLWS, protocol)
	})

	t.Run("should reject unknown sub-protocols", func(t *testing.T) {
		_, err := ParseProtocol("mqtt")
		assert.ErrorIs(t, err, ErrUnsupportedProtocol)
	})
}

func TestDial(t *testing.T) {
	t.Run("should run a subscription against a graphql-transport-ws server", func(t *testing.T) {
		initPayloads := make(chan string, 1)
		server := newScriptedServer(t, string(ProtocolGraphQLTransportWS), func(conn *gorillaws.Conn) {
			_, message, err := conn.ReadMessage()
			if !assert.NoError(t, err) {
				return
			}
			initPayloads <- gjson.GetBytes(message, "payload").Raw
			assert.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`{"type":"connection_ack"}`)))

			_, message, err = conn.ReadMessage()
			if !assert.NoError(t, err) {
				return
			}
			id := gjson.GetBytes(message, "id").String()
			assert.Equal(t, "subscribe", gjson.GetBytes(message, "type").String())

			assert.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`{"id":"`+id+`","type":"next","payload":{"data":{"postsPubSub":[{"id":"1","body":"hello"}]}}}`)))
			assert.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`{"id":"`+id+`","type":"complete"}`)))
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		stream, err := Dial(ctx, wsURL(server),
			WithInitPayload([]byte(`{"Authorization":"Bearer ey123"}`)),
		)
		require.NoError(t, err)
		go func() {
			_ = stream.Run(ctx)
		}()

		received := make(chan string, 1)
		completed := make(chan struct{})
		_, err = stream.Subscribe(ctx, graphql.Request{Query: "subscription PostsPubSub { postsPubSub { id body } }"}, subscription.Observer{
			Next: func(data []byte) {
				received <- string(data)
			},
			Complete: func() {
				close(completed)
			},
		})
		require.NoError(t, err)

		assert.Equal(t, `{"Authorization":"Bearer ey123"}`, <-initPayloads)
		assert.Equal(t, `{"data":{"postsPubSub":[{"id":"1","body":"hello"}]}}`, <-received)

		select {
		case <-completed:
		case <-ctx.Done():
			t.Fatal("subscription did not complete")
		}

		require.NoError(t, stream.Close())
	})

	t.Run("should fail when the server selects another sub-protocol", func(t *testing.T) {
		server := newScriptedServer(t, string(ProtocolGraphQLWS), func(conn *gorillaws.Conn) {})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := DialWithOptions(ctx, wsURL(server), DialOptions{Protocol: ProtocolGraphQLTransportWS})
		assert.ErrorIs(t, err, ErrUnsupportedProtocol)
	})
}

// newScriptedServer upgrades every request with serverProtocol and hands the connection to script.
func newScriptedServer(t *testing.T, serverProtocol string, script func(conn *gorillaws.Conn)) *httptest.Server {
	t.Helper()

	upgrader := gorillaws.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := http.Header{}
		header.Set("Sec-WebSocket-Protocol", serverProtocol)
		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			return
		}
		defer conn.Close()
		script(conn)
		// keep the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/subscriptions"
}
