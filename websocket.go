package chatsdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size.
	maxMessageSize = 1024 * 1024
)

// inboundBuffer is the receive channel capacity. Frames queue here when
// dispatch is slower than arrival so the read loop never blocks on the
// consumer.
const inboundBuffer = 256

var errTransportClosed = errors.New("transport is not connected")

// discardLogger returns a logger that drops everything. Used whenever the
// embedder does not supply one.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WebSocketTransport implements Transport over a gorilla/websocket connection.
type WebSocketTransport struct {
	dialer *websocket.Dialer
	logger *slog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	inbound  chan Inbound
	pingDone chan struct{}

	writeMu sync.Mutex // serializes writes to the socket
}

// NewWebSocketTransport creates a transport using the default dialer. A nil
// logger disables logging.
func NewWebSocketTransport(logger *slog.Logger) *WebSocketTransport {
	if logger == nil {
		logger = discardLogger()
	}
	return &WebSocketTransport{
		dialer: websocket.DefaultDialer,
		logger: logger,
	}
}

// Connect dials the endpoint and starts the read and ping loops. A second
// Connect on a live connection is a success no-op.
func (t *WebSocketTransport) Connect(ctx context.Context, url string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	conn, resp, err := t.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return NewTransportError(TransportClosed, 0, fmt.Errorf("dial %s: status %d: %w", url, resp.StatusCode, err))
		}
		return NewTransportError(TransportClosed, 0, fmt.Errorf("dial %s: %w", url, err))
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	t.conn = conn
	t.inbound = make(chan Inbound, inboundBuffer)
	t.pingDone = make(chan struct{})

	go t.readLoop(conn, t.inbound)
	go t.pingLoop(conn, t.pingDone)

	t.logger.Debug("socket connected", "url", url)
	return nil
}

// Send writes one text frame.
func (t *WebSocketTransport) Send(ctx context.Context, data []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return NewTransportError(TransportClosed, 0, errTransportClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return NewTransportError(TransportAbnormalClosure, 0, fmt.Errorf("write frame: %w", err))
	}
	return nil
}

// Receive returns the inbound stream for the current connection. Before the
// first Connect it returns a closed channel so consumers never block forever.
func (t *WebSocketTransport) Receive() <-chan Inbound {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inbound == nil {
		ch := make(chan Inbound)
		close(ch)
		return ch
	}
	return t.inbound
}

// Close performs a graceful shutdown: it writes a close frame with the given
// code, then tears down the connection. Safe to call multiple times.
func (t *WebSocketTransport) Close(code int, reason string) error {
	t.mu.Lock()
	conn := t.conn
	pingDone := t.pingDone
	t.conn = nil
	t.pingDone = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	if pingDone != nil {
		close(pingDone)
	}

	t.writeMu.Lock()
	deadline := time.Now().Add(writeWait)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	t.writeMu.Unlock()

	return conn.Close()
}

// readLoop pumps frames from the socket into the inbound channel. It owns the
// channel: on normal closure it closes cleanly, on anything else it delivers
// the typed transport error first.
func (t *WebSocketTransport) readLoop(conn *websocket.Conn, inbound chan Inbound) {
	defer close(inbound)

	for {
		_, data, err := conn.ReadMessage()
		if err == nil {
			inbound <- Inbound{Data: data}
			continue
		}

		t.mu.Lock()
		// Close detaches the connection before closing the socket, so an
		// already-detached conn means a local graceful shutdown.
		localClose := t.conn != conn
		if !localClose {
			t.conn = nil
			if t.pingDone != nil {
				close(t.pingDone)
				t.pingDone = nil
			}
		}
		t.mu.Unlock()

		if localClose || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			t.logger.Debug("socket closed normally")
		} else {
			inbound <- Inbound{Err: classifyReadError(err)}
		}
		_ = conn.Close()
		return
	}
}

// pingLoop issues keep-alive pings until the connection goes away. A missed
// pong surfaces as a read-deadline failure in readLoop.
func (t *WebSocketTransport) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			t.writeMu.Unlock()
			if err != nil {
				t.logger.Debug("ping write failed", "err", err)
				_ = conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

// classifyReadError maps socket read failures onto the transport error set.
func classifyReadError(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return NewTransportError(TransportAbnormalClosure, closeErr.Code, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		// Read deadline expired: the peer stopped answering pings.
		return NewTransportError(TransportPingTimeout, 0, err)
	}
	return NewTransportError(TransportAbnormalClosure, 0, err)
}
