package websocket

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/jensneuse/abstractlogger"
	"go.uber.org/atomic"
)

const closeFrameWriteTimeout = time.Second

// Client is an actual implementation of the subscription transport client interface.
type Client struct {
	logger abstractlogger.Logger
	// serverConn holds the actual connection to the server.
	serverConn net.Conn
	// isClosedConnection indicates if the websocket connection is closed.
	isClosedConnection *atomic.Bool
	writeMu            sync.Mutex
}

// NewClient will create a new websocket subscription client.
func NewClient(logger abstractlogger.Logger, serverConn net.Conn) *Client {
	return &Client{
		logger:             logger,
		serverConn:         serverConn,
		isClosedConnection: atomic.NewBool(false),
	}
}

// ReadBytesFromServer will read a subscription message from the websocket server.
// Control frames are answered on the read goroutine, under the same lock as every other write.
func (c *Client) ReadBytesFromServer() ([]byte, error) {
	data, opCode, err := c.readServerData()
	if err != nil {
		if c.isClosedConnectionError(err) {
			return nil, nil
		}

		c.logger.Error("websocket.Client.ReadBytesFromServer()",
			abstractlogger.Error(err),
			abstractlogger.ByteString("data", data),
			abstractlogger.Any("opCode", opCode),
		)

		return nil, err
	}

	return data, nil
}

func (c *Client) readServerData() ([]byte, ws.OpCode, error) {
	controlHandler := c.lockedControlHandler()
	reader := &wsutil.Reader{
		Source:          c.serverConn,
		State:           ws.StateClientSide,
		CheckUTF8:       true,
		SkipHeaderCheck: false,
		OnIntermediate:  controlHandler,
	}

	for {
		header, err := reader.NextFrame()
		if err != nil {
			return nil, 0, err
		}

		if header.OpCode.IsControl() {
			if err := controlHandler(header, reader); err != nil {
				return nil, 0, err
			}
			continue
		}

		if header.OpCode&(ws.OpText|ws.OpBinary) == 0 {
			if err := reader.Discard(); err != nil {
				return nil, 0, err
			}
			continue
		}

		data, err := io.ReadAll(reader)
		return data, header.OpCode, err
	}
}

// lockedControlHandler answers ping and close frames while holding writeMu.
func (c *Client) lockedControlHandler() wsutil.FrameHandlerFunc {
	handler := wsutil.ControlFrameHandler(c.serverConn, ws.StateClientSide)
	return func(header ws.Header, reader io.Reader) error {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		return handler(header, reader)
	}
}

// WriteBytesToServer will write a subscription message to the websocket server.
func (c *Client) WriteBytesToServer(message []byte) error {
	if c.isClosedConnection.Load() {
		return nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	err := wsutil.WriteClientMessage(c.serverConn, ws.OpText, message)
	if err != nil {
		c.logger.Error("websocket.Client.WriteBytesToServer()",
			abstractlogger.Error(err),
			abstractlogger.ByteString("message", message),
		)

		return err
	}

	return nil
}

// IsConnected will indicate if the websocket connection is still established.
func (c *Client) IsConnected() bool {
	return !c.isClosedConnection.Load()
}

// Disconnect will close the websocket connection.
func (c *Client) Disconnect() error {
	if !c.isClosedConnection.CAS(false, true) {
		return nil
	}

	c.logger.Debug("websocket.Client.Disconnect()",
		abstractlogger.String("message", "disconnecting from server"),
	)

	c.writeMu.Lock()
	_ = c.serverConn.SetWriteDeadline(time.Now().Add(closeFrameWriteTimeout))
	_ = wsutil.WriteClientMessage(c.serverConn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
	c.writeMu.Unlock()

	return c.serverConn.Close()
}

// isClosedConnectionError will indicate if the given error is a connection closed error.
func (c *Client) isClosedConnectionError(err error) bool {
	var closedErr wsutil.ClosedError
	if errors.As(err, &closedErr) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		c.isClosedConnection.Store(true)
	}

	return c.isClosedConnection.Load()
}

// bufferedConn drains bytes the dialer already read past the handshake before reading from the connection.
type bufferedConn struct {
	net.Conn
	reader *bufio.Reader
}

func (b *bufferedConn) Read(p []byte) (int, error) {
	return b.reader.Read(p)
}
