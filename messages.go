package chatsdk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateThread starts a new local thread, validating the channel's required
// pre-chat fields first. Multi-thread channels may hold several threads; a
// single-thread channel refuses a second one. The thread exists server-side
// once the first message is sent.
func (c *Client) CreateThread(fields []CustomField) (ChatThread, error) {
	session := c.Session()
	if survey := session.Config.PreChatSurvey; survey != nil {
		provided := make(map[string]bool, len(fields))
		for _, f := range fields {
			if f.Value != "" {
				provided[f.Ident] = true
			}
		}
		for _, def := range survey.CustomFields {
			if def.Required && !provided[def.Ident] {
				return ChatThread{}, NewValidationError(def.Ident, "required pre-chat field is missing")
			}
		}
	}
	if !session.Config.HasMultipleThreadsPerEndUser && len(c.store.Threads()) > 0 {
		return ChatThread{}, NewValidationError("thread", "channel supports a single thread per customer")
	}

	id := uuid.NewString()
	c.store.CreateThread(id, "")
	if len(fields) > 0 {
		c.store.ApplyCustomFields(id, fields)
	}
	c.storage.Set(StorageKeyThreadID, id)

	thread, _ := c.store.Thread(id)
	c.delegate.OnThreadAdded(thread)
	return thread, nil
}

// SendMessage sends a text message with optional attachments to a thread and
// waits for the messageCreated acknowledgment. A failed send is never retried
// automatically; resubmit explicitly.
func (c *Client) SendMessage(ctx context.Context, threadID, text string, attachments ...Attachment) (Message, error) {
	thread, ok := c.store.Thread(threadID)
	if !ok {
		return Message{}, NewValidationError("thread", fmt.Sprintf("unknown thread %s", threadID))
	}
	if !thread.CanAddMoreMessages {
		return Message{}, NewValidationError("thread", "thread is archived and cannot accept new messages")
	}

	data := sendMessageData{
		Thread:               ThreadRef{IDOnExternalPlatform: threadID},
		IDOnExternalPlatform: uuid.NewString(),
		MessageContent:       MessageContentItem{Value: &TextContent{Text: text}},
		Attachments:          attachments,
	}
	outcome, err := c.sendCorrelated(ctx, EventSendMessage, data)
	if err != nil {
		return Message{}, err
	}
	if p, ok := outcome.Payload.(*MessageCreatedPayload); ok {
		return p.Message, nil
	}
	return Message{}, fmt.Errorf("unexpected postback %s to send message", outcome.Type)
}

// LoadMoreMessages fetches one older page for the thread and waits for the
// merge. It is a no-op returning the current snapshot when the thread has no
// further pages.
func (c *Client) LoadMoreMessages(ctx context.Context, threadID string) (ChatThread, error) {
	thread, ok := c.store.Thread(threadID)
	if !ok {
		return ChatThread{}, NewValidationError("thread", fmt.Sprintf("unknown thread %s", threadID))
	}
	if !thread.HasMoreMessagesToLoad() {
		return thread, nil
	}

	oldest := NewTimestamp(time.Now())
	if len(thread.Messages) > 0 {
		oldest = thread.Messages[0].CreatedAt
	}
	data := loadMoreMessagesData{
		Thread:                ThreadRef{IDOnExternalPlatform: threadID},
		ScrollToken:           thread.ScrollToken,
		OldestMessageDatetime: oldest,
	}
	if _, err := c.sendCorrelated(ctx, EventLoadMoreMessages, data); err != nil {
		return ChatThread{}, err
	}
	merged, _ := c.store.Thread(threadID)
	return merged, nil
}

// RecoverThread restores a thread's full snapshot from the server. An empty
// threadID falls back to the last locally created thread, then to the
// channel's single thread.
func (c *Client) RecoverThread(ctx context.Context, threadID string) (ChatThread, error) {
	if threadID == "" {
		if cached, ok := c.storage.Get(StorageKeyThreadID); ok {
			threadID = cached
		}
	}
	data := recoverThreadData{}
	if threadID != "" {
		data.Thread = &ThreadRef{IDOnExternalPlatform: threadID}
	}
	outcome, err := c.sendCorrelated(ctx, EventRecoverThread, data)
	if err != nil {
		return ChatThread{}, err
	}
	if p, ok := outcome.Payload.(*ThreadRecoveredPayload); ok {
		if thread, exists := c.store.Thread(p.Thread.IDOnExternalPlatform); exists {
			return thread, nil
		}
	}
	return ChatThread{}, fmt.Errorf("unexpected postback %s to thread recovery", outcome.Type)
}

// FetchThreadList asks for the customer's thread list. Results arrive through
// the returned refs and the threads-received notification.
func (c *Client) FetchThreadList(ctx context.Context) ([]ThreadRef, error) {
	outcome, err := c.sendCorrelated(ctx, EventFetchThreadList, nil)
	if err != nil {
		return nil, err
	}
	if p, ok := outcome.Payload.(*ThreadListFetchedPayload); ok {
		return p.Threads, nil
	}
	return nil, fmt.Errorf("unexpected postback %s to thread list fetch", outcome.Type)
}

// LoadThreadMetadata fetches a thread's metadata (last message, owner).
func (c *Client) LoadThreadMetadata(ctx context.Context, threadID string) (*Message, *Agent, error) {
	data := updateThreadNameData{Thread: ThreadRef{IDOnExternalPlatform: threadID}}
	outcome, err := c.sendCorrelated(ctx, EventLoadThreadMetadata, data)
	if err != nil {
		return nil, nil, err
	}
	if p, ok := outcome.Payload.(*ThreadMetadataLoadedPayload); ok {
		return p.LastMessage, p.OwnerAssignee, nil
	}
	return nil, nil, fmt.Errorf("unexpected postback %s to metadata load", outcome.Type)
}

// ArchiveThread archives the thread server-side and removes it from memory
// once acknowledged.
func (c *Client) ArchiveThread(ctx context.Context, threadID string) error {
	if _, ok := c.store.Thread(threadID); !ok {
		return NewValidationError("thread", fmt.Sprintf("unknown thread %s", threadID))
	}
	data := archiveThreadData{Thread: ThreadRef{IDOnExternalPlatform: threadID}}
	_, err := c.sendCorrelated(ctx, EventArchiveThread, data)
	return err
}

// MarkMessagesSeen reports that the customer has seen the thread's messages.
// Fire-and-forget.
func (c *Client) MarkMessagesSeen(ctx context.Context, threadID string) error {
	env, err := c.buildEnvelope(EventMessageSeenByCustomer, messageSeenData{Thread: ThreadRef{IDOnExternalPlatform: threadID}})
	if err != nil {
		return err
	}
	return c.send(ctx, env)
}

// ReportTypingStarted reports the customer started typing. Fire-and-forget.
func (c *Client) ReportTypingStarted(ctx context.Context, threadID string) error {
	return c.sendTyping(ctx, EventSenderTypingStarted, threadID)
}

// ReportTypingEnded reports the customer stopped typing. Fire-and-forget.
func (c *Client) ReportTypingEnded(ctx context.Context, threadID string) error {
	return c.sendTyping(ctx, EventSenderTypingEnded, threadID)
}

func (c *Client) sendTyping(ctx context.Context, eventType EventType, threadID string) error {
	env, err := c.buildEnvelope(eventType, typingData{Thread: ThreadRef{IDOnExternalPlatform: threadID}})
	if err != nil {
		return err
	}
	return c.send(ctx, env)
}

// SetCustomFields applies custom fields to a thread, merging them locally
// once the server confirms.
func (c *Client) SetCustomFields(ctx context.Context, threadID string, fields []CustomField) error {
	data := setCustomFieldsData{
		Thread:       ThreadRef{IDOnExternalPlatform: threadID},
		CustomFields: fields,
	}
	env, err := c.buildEnvelope(EventSetCustomFields, data)
	if err != nil {
		return err
	}
	if err := c.send(ctx, env); err != nil {
		return err
	}
	c.store.ApplyCustomFields(threadID, fields)
	return nil
}

// RefreshToken exchanges the stored refresh token for a new access token.
func (c *Client) RefreshToken(ctx context.Context) error {
	session := c.Session()
	if session.RefreshToken == "" {
		return NewValidationError("token", "no refresh token stored")
	}
	data := refreshTokenData{}
	data.AccessToken.Token = session.RefreshToken
	outcome, err := c.sendCorrelated(ctx, EventRefreshToken, data)
	if err != nil {
		return err
	}
	if p, ok := outcome.Payload.(*TokenRefreshedPayload); ok {
		c.applyRefreshedToken(p.AccessToken)
	}
	return nil
}

// UpdateThreadName renames a thread both server-side and locally.
func (c *Client) UpdateThreadName(ctx context.Context, threadID, name string) error {
	data := updateThreadNameData{Thread: ThreadRef{IDOnExternalPlatform: threadID, ThreadName: name}}
	env, err := c.buildEnvelope(EventUpdateThreadName, data)
	if err != nil {
		return err
	}
	if err := c.send(ctx, env); err != nil {
		return err
	}
	c.store.RenameThread(threadID, name)
	return nil
}

// ExecuteTrigger fires a proactive-action trigger by id. Fire-and-forget.
func (c *Client) ExecuteTrigger(ctx context.Context, triggerID string) error {
	data := executeTriggerData{}
	data.Trigger.ID = triggerID
	env, err := c.buildEnvelope(EventExecuteTrigger, data)
	if err != nil {
		return err
	}
	return c.send(ctx, env)
}

// clearTokens wipes the token pair from session and storage after the server
// rejects it.
func (c *Client) clearTokens() {
	c.sessionMu.Lock()
	c.session.Token = nil
	c.session.RefreshToken = ""
	c.sessionMu.Unlock()
	c.storage.Remove(StorageKeyAccessToken)
	c.storage.Remove(StorageKeyRefreshToken)
}
