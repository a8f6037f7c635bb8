package chatsdk

import "context"

// Inbound is one item of the transport's receive stream. Exactly one of Data
// and Err is set. A stream that ends without an Err item was closed normally.
type Inbound struct {
	Data []byte
	Err  error
}

// Transport abstracts the underlying socket connection. It owns exactly one
// physical connection at a time and exposes inbound frames as a channel that
// closes when the connection ends.
//
// Send and Close are safe to call concurrently with each other and with the
// receive stream; state transitions are serialized internally.
type Transport interface {
	// Connect establishes the connection. Calling Connect while already
	// connected is a no-op returning success on the existing session.
	Connect(ctx context.Context, url string) error

	// Send transmits one frame. It fails with a TransportError of kind
	// TransportClosed when not connected.
	Send(ctx context.Context, data []byte) error

	// Receive returns the inbound stream for the current connection. On
	// normal closure the channel closes cleanly; on any other closure it
	// yields a final Inbound carrying a TransportError, then closes.
	// Reconnecting replaces the stream; the previous channel stays closed.
	Receive() <-chan Inbound

	// Close performs a graceful shutdown with the given close code.
	// Safe to call multiple times.
	Close(code int, reason string) error
}
