package chatsdk

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// EncodeCommand wraps an outbound command in the wire envelope and serializes
// it. Authorization and token-refresh commands travel under the register
// action; everything else is a chat window event.
func EncodeCommand(env OutboundEnvelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Payload.EventType, err)
	}
	return data, nil
}

// actionFor selects the envelope action for an outbound event type.
func actionFor(eventType EventType) Action {
	switch eventType {
	case EventAuthorizeCustomer, EventReconnectCustomer, EventRefreshToken:
		return ActionRegister
	default:
		return ActionChatWindowEvent
	}
}

// DecodeEvent decodes one inbound frame into a DecodedEvent.
//
// Frames arrive in one of three layouts; the decoder must tolerate all of
// them, sometimes in the same message:
//
//   - an error frame: { "error": {errorCode, transactionId, errorMessage} },
//     possibly also carrying the ServerError fallback fields at top level
//   - a postback response: { "eventId", "eventType", "postback":
//     {"eventType", "data": {...}} }
//   - a push event: { "eventId", "eventType", "createdAt", "data": {...} }
//
// Unknown discriminators decode to an UnknownPayload, never an error.
func DecodeEvent(data []byte) (DecodedEvent, error) {
	if !gjson.ValidBytes(data) {
		return DecodedEvent{}, &DecodeError{Kind: DecodeMalformed, cause: fmt.Errorf("invalid JSON frame")}
	}

	ev := DecodedEvent{Raw: append(json.RawMessage(nil), data...)}

	// The fallback error structure is decoded whenever its message field is
	// present, regardless of the rest of the frame.
	if gjson.GetBytes(data, "message").Exists() {
		var se ServerError
		if err := json.Unmarshal(data, &se); err == nil && se.Message != "" {
			ev.ServerError = &se
		}
	}

	if errField := gjson.GetBytes(data, "error"); errField.Exists() {
		var opErr OperationError
		if err := json.Unmarshal([]byte(errField.Raw), &opErr); err != nil {
			return DecodedEvent{}, &DecodeError{Kind: DecodeMalformed, cause: fmt.Errorf("error field: %w", err)}
		}
		ev.Error = &opErr
		ev.EventID = gjson.GetBytes(data, "eventId").String()
		return ev, nil
	}

	ev.EventID = gjson.GetBytes(data, "eventId").String()
	if createdAt := gjson.GetBytes(data, "createdAt"); createdAt.Exists() {
		// Tolerated when unparsable; the timestamp is advisory.
		_ = ev.CreatedAt.UnmarshalJSON([]byte(createdAt.Raw))
	}

	discriminator := EventType(gjson.GetBytes(data, "eventType").String())
	body := gjson.GetBytes(data, "data")
	if postback := gjson.GetBytes(data, "postback"); postback.Exists() {
		ev.Postback = true
		if pbType := postback.Get("eventType"); pbType.Exists() {
			discriminator = EventType(pbType.String())
		}
		body = postback.Get("data")
	}
	ev.Type = discriminator

	payload, err := decodePayload(discriminator, body)
	if err != nil {
		return DecodedEvent{}, err
	}
	ev.Payload = payload
	return ev, nil
}

// decodePayload dispatches the discriminator to the matching payload decoder.
func decodePayload(discriminator EventType, body gjson.Result) (EventPayload, error) {
	raw := []byte(body.Raw)
	if !body.Exists() {
		raw = []byte("{}")
	}

	switch discriminator {
	case EventCustomerAuthorized:
		return decodeAs[CustomerAuthorizedPayload](discriminator, raw)
	case EventTokenRefreshed:
		return decodeAs[TokenRefreshedPayload](discriminator, raw)
	case EventMessageCreated:
		return decodeAs[MessageCreatedPayload](discriminator, raw)
	case EventMessageReadChanged, EventMessageSeenChanged:
		return decodeAs[MessageStatusPayload](discriminator, raw)
	case EventMoreMessagesLoaded:
		return decodeAs[MoreMessagesLoadedPayload](discriminator, raw)
	case EventThreadRecovered:
		return decodeAs[ThreadRecoveredPayload](discriminator, raw)
	case EventThreadMetadataLoaded:
		return decodeAs[ThreadMetadataLoadedPayload](discriminator, raw)
	case EventThreadListFetched:
		return decodeAs[ThreadListFetchedPayload](discriminator, raw)
	case EventThreadArchived:
		return decodeAs[ThreadArchivedPayload](discriminator, raw)
	case EventCaseStatusChanged:
		return decodeAs[CaseStatusChangedPayload](discriminator, raw)
	case EventContactInboxAssigneeChanged:
		return decodeAs[AssigneeChangedPayload](discriminator, raw)
	case EventAgentTypingStarted, EventAgentTypingEnded:
		return decodeAs[AgentTypingPayload](discriminator, raw)
	case EventProactiveAction:
		return decodeAs[ProactiveActionPayload](discriminator, raw)
	case EventCustomFieldsSet:
		return decodeAs[CustomFieldsSetPayload](discriminator, raw)
	case "":
		// Postback acknowledgments may omit the inner discriminator.
		return &GenericAckPayload{}, nil
	default:
		return &UnknownPayload{Type: discriminator, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

// decodeAs unmarshals raw into P, reporting schema mismatches with the
// offending discriminator.
func decodeAs[P any](discriminator EventType, raw []byte) (EventPayload, error) {
	p := new(P)
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, &DecodeError{Kind: DecodeSchemaMismatch, Discriminator: discriminator, cause: err}
	}
	payload, ok := any(p).(EventPayload)
	if !ok {
		return nil, &DecodeError{Kind: DecodeSchemaMismatch, Discriminator: discriminator, cause: fmt.Errorf("payload type %T", p)}
	}
	return payload, nil
}
