package chatsdk

// MessageDirection tells whether a message flows toward the agent or the client.
type MessageDirection string

const (
	DirectionToAgent  MessageDirection = "toAgent"
	DirectionToClient MessageDirection = "toClient"
)

// Agent is the identity of a human or virtual agent.
type Agent struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	Surname   string `json:"surname"`
	Nickname  string `json:"nickname,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// Attachment is an uploaded file referenced by a message.
type Attachment struct {
	URL          string `json:"url"`
	FriendlyName string `json:"friendlyName"`
	MimeType     string `json:"mimeType,omitempty"`
}

// UserStatistics is the mutable read/seen status of a message. It is the only
// part of a Message updated in place after construction.
type UserStatistics struct {
	ReadAt *Timestamp `json:"readAt,omitempty"`
	SeenAt *Timestamp `json:"seenAt,omitempty"`
}

// Message is one chat message. Immutable once constructed except for
// UserStatistics, which later events referencing the same id may advance.
type Message struct {
	IDOnExternalPlatform       string             `json:"idOnExternalPlatform"`
	ThreadIDOnExternalPlatform string             `json:"threadIdOnExternalPlatform"`
	MessageContent             MessageContentItem `json:"messageContent"`
	CreatedAt                  Timestamp          `json:"createdAt"`
	Attachments                []Attachment       `json:"attachments,omitempty"`
	Direction                  MessageDirection   `json:"direction"`
	UserStatistics             UserStatistics     `json:"userStatistics"`
	AuthorUser                 *Agent             `json:"authorUser,omitempty"`
	AuthorEndUserIdentity      *CustomerIdentity  `json:"authorEndUserIdentity,omitempty"`
}

// CustomField is a key/value pair with last-write-wins semantics per key,
// decided by UpdatedAt.
type CustomField struct {
	Ident     string    `json:"ident"`
	Value     string    `json:"value"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// ChatThread is the canonical in-memory view of one conversation. Messages
// are kept unique by id and ordered oldest to newest.
type ChatThread struct {
	// ID is the thread's stable external identifier.
	ID string
	// Name is the optional human-readable thread name.
	Name string
	// Messages are ordered oldest first.
	Messages []Message
	// InboxAssignee is the currently assigned agent, if any.
	InboxAssignee *Agent
	// ContactID may start empty and is populated once the server confirms
	// contact creation.
	ContactID string
	// CanAddMoreMessages turns false once the thread is archived.
	CanAddMoreMessages bool
	// ScrollToken pages older messages; empty string means exhausted.
	ScrollToken string
	// CustomFields are the thread-scoped custom fields.
	CustomFields []CustomField
}

// HasMoreMessagesToLoad reports whether an older page can still be fetched.
func (t *ChatThread) HasMoreMessagesToLoad() bool {
	return t.ScrollToken != ""
}

// containsMessage reports whether the thread already holds a message with id.
func (t *ChatThread) containsMessage(id string) bool {
	for i := range t.Messages {
		if t.Messages[i].IDOnExternalPlatform == id {
			return true
		}
	}
	return false
}

// clone returns a deep copy safe to hand to external readers.
func (t *ChatThread) clone() ChatThread {
	out := *t
	out.Messages = make([]Message, len(t.Messages))
	copy(out.Messages, t.Messages)
	out.CustomFields = make([]CustomField, len(t.CustomFields))
	copy(out.CustomFields, t.CustomFields)
	if t.InboxAssignee != nil {
		assignee := *t.InboxAssignee
		out.InboxAssignee = &assignee
	}
	return out
}
