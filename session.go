package chatsdk

import "time"

// ConnectionStatus is the aggregate state of the session lifecycle.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusAuthorizing  ConnectionStatus = "authorizing"
	StatusReady        ConnectionStatus = "ready"
	StatusClosing      ConnectionStatus = "closing"
)

// PreChatFieldDefinition describes one survey field the channel may require
// before a thread can be created.
type PreChatFieldDefinition struct {
	Ident    string `json:"ident"`
	Label    string `json:"label"`
	Required bool   `json:"isRequired"`
}

// PreChatSurvey is the channel's pre-chat survey definition.
type PreChatSurvey struct {
	Name         string                   `json:"name"`
	CustomFields []PreChatFieldDefinition `json:"customFields"`
}

// ChannelConfiguration carries the channel feature flags negotiated during
// authorization.
type ChannelConfiguration struct {
	HasMultipleThreadsPerEndUser bool           `json:"hasMultipleThreadsPerEndUser"`
	IsProactiveChatEnabled       bool           `json:"isProactiveChatEnabled"`
	IsAuthorizationEnabled       bool           `json:"isAuthorizationEnabled"`
	PreChatSurvey                *PreChatSurvey `json:"preChatSurvey,omitempty"`
}

// AccessToken is the flat domain view of the server's nested token shape.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// IsExpired reports whether the token is past its expiry.
func (t AccessToken) IsExpired() bool {
	return !t.ExpiresAt.IsZero() && time.Now().After(t.ExpiresAt)
}

// accessTokenFromWire maps the nested wire token onto the flat domain token.
func accessTokenFromWire(w AccessTokenWire) AccessToken {
	return AccessToken{
		Token:     w.Token,
		ExpiresAt: time.Now().Add(time.Duration(w.ExpiresIn) * time.Second),
	}
}

// ConnectionSession is one logical connection attempt: identity, negotiated
// channel configuration, current status and token pair. Owned exclusively by
// the lifecycle controller under single-writer discipline; other components
// read snapshots.
type ConnectionSession struct {
	BrandID     int
	ChannelID   string
	Destination string
	VisitorID   string

	CustomerIdentity CustomerIdentity
	Config           ChannelConfiguration
	Status           ConnectionStatus

	Token        *AccessToken
	RefreshToken string
}
