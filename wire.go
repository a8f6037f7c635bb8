package chatsdk

import "encoding/json"

// Action selects the outbound envelope kind. The register action is reserved
// for authorization and token-refresh commands; everything else travels as a
// chat window event.
type Action string

const (
	ActionRegister        Action = "register"
	ActionChatWindowEvent Action = "chatWindowEvent"
)

// BrandRef identifies the tenant on the wire.
type BrandRef struct {
	ID int `json:"id"`
}

// ChannelRef identifies the chat channel on the wire.
type ChannelRef struct {
	ID string `json:"id"`
}

// ContactRef identifies the server-side contact (case) tied to a thread.
type ContactRef struct {
	ID string `json:"id"`
}

// ThreadRef identifies a thread by its stable external id.
type ThreadRef struct {
	IDOnExternalPlatform string `json:"idOnExternalPlatform"`
	ThreadName           string `json:"threadName,omitempty"`
}

// CustomerIdentity carries the end-user identity inside envelopes and events.
type CustomerIdentity struct {
	IDOnExternalPlatform string `json:"idOnExternalPlatform"`
	FirstName            string `json:"firstName,omitempty"`
	LastName             string `json:"lastName,omitempty"`
}

// AccessTokenWire is the nested token shape the server uses. The domain keeps
// tokens flat (AccessToken in session.go); mapping happens at the codec edge.
type AccessTokenWire struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// OutboundPayload is the payload half of every outbound envelope.
type OutboundPayload struct {
	Brand            BrandRef         `json:"brand"`
	Channel          ChannelRef       `json:"channel"`
	ConsumerIdentity CustomerIdentity `json:"consumerIdentity"`
	EventType        EventType        `json:"eventType"`
	Data             json.RawMessage  `json:"data,omitempty"`
	VisitorID        string           `json:"visitorId,omitempty"`
}

// OutboundEnvelope is the fixed wrapper around every outbound command.
type OutboundEnvelope struct {
	Action  Action          `json:"action"`
	EventID string          `json:"eventId"`
	Payload OutboundPayload `json:"payload"`
}
