package chatsdk

import "encoding/json"

// EventType is the discriminator carried by every frame. The same payload
// shape is reused across several distinct event types; only this field tells
// them apart.
type EventType string

// Outbound event types.
const (
	EventAuthorizeCustomer      EventType = "AuthorizeCustomer"
	EventReconnectCustomer      EventType = "ReconnectCustomer"
	EventRefreshToken           EventType = "RefreshToken"
	EventSendMessage            EventType = "SendMessage"
	EventLoadMoreMessages       EventType = "LoadMoreMessages"
	EventRecoverThread          EventType = "RecoverThread"
	EventFetchThreadList        EventType = "FetchThreadList"
	EventLoadThreadMetadata     EventType = "LoadThreadMetadata"
	EventArchiveThread          EventType = "ArchiveThread"
	EventMessageSeenByCustomer  EventType = "MessageSeenByCustomer"
	EventSenderTypingStarted    EventType = "SenderTypingStarted"
	EventSenderTypingEnded      EventType = "SenderTypingEnded"
	EventSetCustomFields        EventType = "SetCustomFields"
	EventExecuteTrigger         EventType = "ExecuteTrigger"
	EventUpdateThreadName       EventType = "UpdateThread"
)

// Inbound event types.
const (
	EventCustomerAuthorized          EventType = "ConsumerAuthorized"
	EventMessageCreated              EventType = "MessageCreated"
	EventMessageReadChanged          EventType = "MessageReadChanged"
	EventMessageSeenChanged          EventType = "MessageSeenChanged"
	EventMoreMessagesLoaded          EventType = "MoreMessagesLoaded"
	EventThreadRecovered             EventType = "ThreadRecovered"
	EventThreadMetadataLoaded        EventType = "ThreadMetadataLoaded"
	EventThreadListFetched           EventType = "ThreadListFetched"
	EventThreadArchived              EventType = "ThreadArchived"
	EventCaseStatusChanged           EventType = "CaseStatusChanged"
	EventContactInboxAssigneeChanged EventType = "CaseInboxAssigneeChanged"
	EventAgentTypingStarted          EventType = "AgentTypingStarted"
	EventAgentTypingEnded            EventType = "AgentTypingEnded"
	EventTokenRefreshed              EventType = "TokenRefreshed"
	EventProactiveAction             EventType = "FireProactiveAction"
	EventCustomFieldsSet             EventType = "CustomFieldsSet"
)

// EventPayload is the decoded body of an inbound frame.
type EventPayload interface {
	eventPayload()
}

// CustomerAuthorizedPayload confirms authorization. The access token arrives
// in the server's nested wire shape; the lifecycle controller maps it to the
// flat session token.
type CustomerAuthorizedPayload struct {
	ConsumerIdentity CustomerIdentity      `json:"consumerIdentity"`
	AccessToken      *AccessTokenWire      `json:"accessToken,omitempty"`
	Channel          *ChannelConfiguration `json:"channel,omitempty"`
}

func (*CustomerAuthorizedPayload) eventPayload() {}

// TokenRefreshedPayload delivers a refreshed access token.
type TokenRefreshedPayload struct {
	AccessToken AccessTokenWire `json:"accessToken"`
}

func (*TokenRefreshedPayload) eventPayload() {}

// MessageCreatedPayload acknowledges a sent message and pushes third-party
// messages. It is both a response and a state-changing push.
type MessageCreatedPayload struct {
	Thread  ThreadRef   `json:"thread"`
	Message Message     `json:"message"`
	Contact *ContactRef `json:"case,omitempty"`
}

func (*MessageCreatedPayload) eventPayload() {}

// MessageStatusPayload carries a read or seen status change. The enclosing
// event type decides which timestamp applies.
type MessageStatusPayload struct {
	Message Message `json:"message"`
}

func (*MessageStatusPayload) eventPayload() {}

// MoreMessagesLoadedPayload delivers one older page of messages, newest first
// as sent by the server, plus the next scroll token ("" when exhausted).
type MoreMessagesLoadedPayload struct {
	Thread      ThreadRef `json:"thread"`
	Messages    []Message `json:"messages"`
	ScrollToken string    `json:"scrollToken"`
}

func (*MoreMessagesLoadedPayload) eventPayload() {}

// ThreadRecoveredPayload restores a full thread snapshot.
type ThreadRecoveredPayload struct {
	Thread             ThreadRef     `json:"thread"`
	Messages           []Message     `json:"messages"`
	ScrollToken        string        `json:"scrollToken"`
	Contact            *ContactRef   `json:"contact,omitempty"`
	InboxAssignee      *Agent        `json:"inboxAssignee,omitempty"`
	CustomFields       []CustomField `json:"customFields,omitempty"`
	CanAddMoreMessages *bool         `json:"canAddMoreMessages,omitempty"`
}

func (*ThreadRecoveredPayload) eventPayload() {}

// ThreadMetadataLoadedPayload carries a thread's last message and owner.
type ThreadMetadataLoadedPayload struct {
	Thread        ThreadRef `json:"thread"`
	LastMessage   *Message  `json:"lastMessage,omitempty"`
	OwnerAssignee *Agent    `json:"ownerAssignee,omitempty"`
}

func (*ThreadMetadataLoadedPayload) eventPayload() {}

// ThreadListFetchedPayload lists the customer's threads.
type ThreadListFetchedPayload struct {
	Threads []ThreadRef `json:"threads"`
}

func (*ThreadListFetchedPayload) eventPayload() {}

// CaseStatus is the server-side contact status.
type CaseStatus string

const (
	CaseStatusNew    CaseStatus = "new"
	CaseStatusOpen   CaseStatus = "open"
	CaseStatusClosed CaseStatus = "closed"
)

// CaseStatusChangedPayload reports a contact status transition. A closed
// status archives the thread.
type CaseStatusChangedPayload struct {
	Thread ThreadRef  `json:"thread"`
	Status CaseStatus `json:"status"`
}

func (*CaseStatusChangedPayload) eventPayload() {}

// AssigneeChangedPayload reports agent assignment. The previous assignee is
// informational only and never stored.
type AssigneeChangedPayload struct {
	Thread                ThreadRef `json:"thread"`
	InboxAssignee         *Agent    `json:"inboxAssignee,omitempty"`
	PreviousInboxAssignee *Agent    `json:"previousInboxAssignee,omitempty"`
}

func (*AssigneeChangedPayload) eventPayload() {}

// AgentTypingPayload reports typing activity in a thread.
type AgentTypingPayload struct {
	Thread ThreadRef `json:"thread"`
	Agent  *Agent    `json:"user,omitempty"`
}

func (*AgentTypingPayload) eventPayload() {}

// ProactiveActionPayload carries a server-initiated proactive chat action.
type ProactiveActionPayload struct {
	ActionID   string          `json:"actionId"`
	ActionName string          `json:"actionName"`
	ActionType string          `json:"actionType"`
	Data       json.RawMessage `json:"data,omitempty"`
}

func (*ProactiveActionPayload) eventPayload() {}

// CustomFieldsSetPayload confirms custom fields applied to a thread.
type CustomFieldsSetPayload struct {
	Thread       ThreadRef     `json:"thread"`
	CustomFields []CustomField `json:"customFields"`
}

func (*CustomFieldsSetPayload) eventPayload() {}

// ThreadArchivedPayload acknowledges thread archival.
type ThreadArchivedPayload struct {
	Thread ThreadRef `json:"thread"`
}

func (*ThreadArchivedPayload) eventPayload() {}

// GenericAckPayload is an acknowledgment with no body.
type GenericAckPayload struct{}

func (*GenericAckPayload) eventPayload() {}

// UnknownPayload preserves an unrecognized event type. It is inert apart from
// the unhandled-event notification.
type UnknownPayload struct {
	Type EventType
	Raw  json.RawMessage
}

func (*UnknownPayload) eventPayload() {}

// DecodedEvent is the result of decoding one inbound frame.
type DecodedEvent struct {
	// EventID correlates postbacks to the client-generated id of the
	// originating command. Empty for unsolicited pushes.
	EventID string
	// Type is the discriminator; empty for pure error frames.
	Type EventType
	// CreatedAt is the server-side event creation time, when present.
	CreatedAt Timestamp
	// Postback is true when the frame used the postback response layout.
	Postback bool
	// Payload is the decoded body; nil for pure error frames.
	Payload EventPayload
	// Error is set when the frame carried an operation error.
	Error *OperationError
	// ServerError is the tolerated fallback error structure, decoded
	// regardless of the frame's other contents when present.
	ServerError *ServerError
	// Raw is the original frame.
	Raw json.RawMessage
}
