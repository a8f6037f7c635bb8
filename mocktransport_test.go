package chatsdk_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"

	chatsdk "github.com/openlivechat/chatsdk-go"
)

// SentEnvelope is a parsed view of one outbound frame recorded by the mock.
type SentEnvelope struct {
	Action    string
	EventID   string
	EventType string
	Data      gjson.Result
	Raw       []byte
}

// MockTransport is a test implementation of the Transport interface. It
// records sent frames and lets tests inject inbound frames and stream
// failures. An optional responder auto-answers sends, which is how client
// tests simulate server postbacks.
type MockTransport struct {
	mu        sync.Mutex
	connected bool
	inbound   chan chatsdk.Inbound
	sent      []SentEnvelope

	connectErr error
	sendErr    error

	// responder, when set, returns frames to push inbound after each send.
	responder func(env SentEnvelope) [][]byte

	connectCount int
	closeCount   int
	closeCode    int
}

// NewMockTransport creates a disconnected MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Respond installs the auto-responder invoked for every sent envelope.
func (m *MockTransport) Respond(fn func(env SentEnvelope) [][]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = fn
}

// FailConnect makes subsequent Connect calls fail with err.
func (m *MockTransport) FailConnect(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

// FailSend makes subsequent Send calls fail with err.
func (m *MockTransport) FailSend(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// Connect implements Transport.Connect.
func (m *MockTransport) Connect(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connectCount++
	if m.connected {
		return nil
	}
	m.connected = true
	m.inbound = make(chan chatsdk.Inbound, 64)
	return nil
}

// Send implements Transport.Send by recording the parsed envelope and pushing
// any responder frames inbound.
func (m *MockTransport) Send(ctx context.Context, data []byte) error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return chatsdk.NewTransportError(chatsdk.TransportClosed, 0, fmt.Errorf("mock transport not connected"))
	}
	if m.sendErr != nil {
		err := m.sendErr
		m.mu.Unlock()
		return err
	}

	env := parseEnvelope(data)
	m.sent = append(m.sent, env)
	responder := m.responder
	inbound := m.inbound
	m.mu.Unlock()

	if responder != nil {
		for _, frame := range responder(env) {
			inbound <- chatsdk.Inbound{Data: frame}
		}
	}
	return nil
}

// Receive implements Transport.Receive.
func (m *MockTransport) Receive() <-chan chatsdk.Inbound {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inbound == nil {
		ch := make(chan chatsdk.Inbound)
		close(ch)
		return ch
	}
	return m.inbound
}

// Close implements Transport.Close. It ends the inbound stream cleanly,
// mirroring the real transport's local-close behavior.
func (m *MockTransport) Close(code int, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCount++
	m.closeCode = code
	if m.connected {
		m.connected = false
		close(m.inbound)
	}
	return nil
}

// Push injects one inbound frame.
func (m *MockTransport) Push(data []byte) {
	m.mu.Lock()
	inbound := m.inbound
	m.mu.Unlock()
	inbound <- chatsdk.Inbound{Data: data}
}

// FailStream delivers a terminal stream error and ends the stream, simulating
// an abnormal closure.
func (m *MockTransport) FailStream(err error) {
	m.mu.Lock()
	inbound := m.inbound
	m.connected = false
	m.mu.Unlock()
	inbound <- chatsdk.Inbound{Err: err}
	close(inbound)
}

// Sent returns a snapshot of envelopes recorded so far.
func (m *MockTransport) Sent() []SentEnvelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentEnvelope, len(m.sent))
	copy(out, m.sent)
	return out
}

// LastSent returns the most recent envelope, or false when nothing was sent.
func (m *MockTransport) LastSent() (SentEnvelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return SentEnvelope{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// ConnectCount reports how many times Connect was called.
func (m *MockTransport) ConnectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCount
}

func parseEnvelope(data []byte) SentEnvelope {
	raw := append([]byte(nil), data...)
	return SentEnvelope{
		Action:    gjson.GetBytes(raw, "action").String(),
		EventID:   gjson.GetBytes(raw, "eventId").String(),
		EventType: gjson.GetBytes(raw, "payload.eventType").String(),
		Data:      gjson.GetBytes(raw, "payload.data"),
		Raw:       raw,
	}
}

// authorizedFrame builds a consumerAuthorized postback answering eventID.
func authorizedFrame(eventID, customerID, token string) []byte {
	return []byte(fmt.Sprintf(`{
		"eventId": %q,
		"eventType": "ConsumerAuthorized",
		"postback": {
			"eventType": "ConsumerAuthorized",
			"data": {
				"consumerIdentity": {"idOnExternalPlatform": %q},
				"accessToken": {"token": %q, "expiresIn": 3600},
				"channel": {"hasMultipleThreadsPerEndUser": true}
			}
		}
	}`, eventID, customerID, token))
}

// messageCreatedFrame builds a messageCreated postback for a sent message.
func messageCreatedFrame(eventID, threadID, messageID, text string) []byte {
	return []byte(fmt.Sprintf(`{
		"eventId": %q,
		"eventType": "MessageCreated",
		"postback": {
			"eventType": "MessageCreated",
			"data": {
				"thread": {"idOnExternalPlatform": %q},
				"case": {"id": "contact-1"},
				"message": {
					"idOnExternalPlatform": %q,
					"threadIdOnExternalPlatform": %q,
					"messageContent": {"type": "text", "text": %q},
					"createdAt": "2026-03-01T10:00:00.000Z",
					"direction": "toAgent",
					"userStatistics": {}
				}
			}
		}
	}`, eventID, threadID, messageID, threadID, text))
}

// authResponder answers every authorization and reconnect command. Other
// commands are passed to next, when given.
func authResponder(next func(env SentEnvelope) [][]byte) func(env SentEnvelope) [][]byte {
	return func(env SentEnvelope) [][]byte {
		switch env.EventType {
		case "AuthorizeCustomer", "ReconnectCustomer":
			return [][]byte{authorizedFrame(env.EventID, "customer-1", "token-1")}
		}
		if next != nil {
			return next(env)
		}
		return nil
	}
}
