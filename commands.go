package chatsdk

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Outbound command bodies. Each struct is the `data` half of one envelope;
// buildEnvelope adds the identity context around it.

type sendMessageData struct {
	Thread               ThreadRef          `json:"thread"`
	IDOnExternalPlatform string             `json:"idOnExternalPlatform"`
	MessageContent       MessageContentItem `json:"messageContent"`
	Attachments          []Attachment       `json:"attachments,omitempty"`
}

type loadMoreMessagesData struct {
	Thread                ThreadRef `json:"thread"`
	ScrollToken           string    `json:"scrollToken"`
	OldestMessageDatetime Timestamp `json:"oldestMessageDatetime"`
}

type recoverThreadData struct {
	Thread *ThreadRef `json:"thread,omitempty"`
}

type archiveThreadData struct {
	Thread ThreadRef `json:"thread"`
}

type messageSeenData struct {
	Thread ThreadRef `json:"thread"`
}

type typingData struct {
	Thread ThreadRef `json:"thread"`
}

type setCustomFieldsData struct {
	Thread       ThreadRef     `json:"thread"`
	CustomFields []CustomField `json:"customFields"`
}

type updateThreadNameData struct {
	Thread ThreadRef `json:"thread"`
}

type authorizeCustomerData struct {
	AuthorizationCode string `json:"authorizationCode,omitempty"`
	CodeVerifier      string `json:"codeVerifier,omitempty"`
}

type reconnectCustomerData struct {
	AccessToken struct {
		Token string `json:"token"`
	} `json:"accessToken"`
}

type refreshTokenData struct {
	AccessToken struct {
		Token string `json:"token"`
	} `json:"accessToken"`
}

type executeTriggerData struct {
	Trigger struct {
		ID string `json:"id"`
	} `json:"trigger"`
}

// buildEnvelope assembles a complete outbound envelope around the command
// body, generating a fresh event id. The register/chatWindowEvent split is
// decided by the event type.
func (c *Client) buildEnvelope(eventType EventType, data interface{}) (OutboundEnvelope, error) {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return OutboundEnvelope{}, fmt.Errorf("marshal %s data: %w", eventType, err)
		}
		raw = encoded
	}

	session := c.Session()
	return OutboundEnvelope{
		Action:  actionFor(eventType),
		EventID: uuid.NewString(),
		Payload: OutboundPayload{
			Brand:            BrandRef{ID: session.BrandID},
			Channel:          ChannelRef{ID: session.ChannelID},
			ConsumerIdentity: session.CustomerIdentity,
			EventType:        eventType,
			Data:             raw,
			VisitorID:        session.VisitorID,
		},
	}, nil
}
