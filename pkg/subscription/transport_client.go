package subscription

// TransportClient provides an interface that can be implemented by any possible subscription transport like websockets, mqtt, etc.
// It operates with raw byte slices.
type TransportClient interface {
	// ReadBytesFromServer will invoke a read operation from the server connection and return a byte slice.
	ReadBytesFromServer() ([]byte, error)
	// WriteBytesToServer will invoke a write operation to the server connection using a byte slice.
	WriteBytesToServer([]byte) error
	// IsConnected will indicate if a connection is still established.
	IsConnected() bool
	// Disconnect will close the connection between client and server.
	Disconnect() error
}
