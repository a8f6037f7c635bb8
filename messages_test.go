package chatsdk_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatsdk "github.com/openlivechat/chatsdk-go"
)

func connectedClient(t *testing.T, responder func(env SentEnvelope) [][]byte) (*chatsdk.Client, *MockTransport) {
	t.Helper()
	transport := NewMockTransport()
	transport.Respond(authResponder(responder))
	client, _ := newTestClient(t, transport)
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(client.SignOut)
	return client, transport
}

// TestLoadMoreMessagesMergesOlderPage verifies paging: the scroll token
// drives the request, the page merges oldest-first, and an empty token marks
// the thread exhausted.
func TestLoadMoreMessagesMergesOlderPage(t *testing.T) {
	client, transport := connectedClient(t, func(env SentEnvelope) [][]byte {
		switch env.EventType {
		case "RecoverThread":
			return [][]byte{[]byte(`{
				"eventId": "` + env.EventID + `",
				"eventType": "ThreadRecovered",
				"postback": {"eventType": "ThreadRecovered", "data": {
					"thread": {"idOnExternalPlatform": "th-1"},
					"messages": [{
						"idOnExternalPlatform": "m-2",
						"threadIdOnExternalPlatform": "th-1",
						"messageContent": {"type": "text", "text": "newer"},
						"createdAt": "2026-03-01T10:00:00.000Z",
						"direction": "toClient",
						"userStatistics": {}
					}],
					"scrollToken": "page-2"
				}}
			}`)}
		case "LoadMoreMessages":
			return [][]byte{[]byte(`{
				"eventId": "` + env.EventID + `",
				"eventType": "MoreMessagesLoaded",
				"postback": {"eventType": "MoreMessagesLoaded", "data": {
					"thread": {"idOnExternalPlatform": "th-1"},
					"messages": [{
						"idOnExternalPlatform": "m-1",
						"threadIdOnExternalPlatform": "th-1",
						"messageContent": {"type": "text", "text": "older"},
						"createdAt": "2026-03-01T09:00:00.000Z",
						"direction": "toClient",
						"userStatistics": {}
					}],
					"scrollToken": ""
				}}
			}`)}
		}
		return nil
	})

	_, err := client.RecoverThread(context.Background(), "th-1")
	require.NoError(t, err)

	thread, err := client.LoadMoreMessages(context.Background(), "th-1")
	require.NoError(t, err)

	sent, ok := transport.LastSent()
	require.True(t, ok)
	assert.Equal(t, "LoadMoreMessages", sent.EventType)
	assert.Equal(t, "page-2", sent.Data.Get("scrollToken").String())

	require.Len(t, thread.Messages, 2)
	assert.Equal(t, "m-1", thread.Messages[0].IDOnExternalPlatform)
	assert.Equal(t, "m-2", thread.Messages[1].IDOnExternalPlatform)
	assert.False(t, thread.HasMoreMessagesToLoad())

	// Exhausted thread: no further request goes out.
	before := len(transport.Sent())
	again, err := client.LoadMoreMessages(context.Background(), "th-1")
	require.NoError(t, err)
	assert.Len(t, again.Messages, 2)
	assert.Len(t, transport.Sent(), before)
}

// TestArchiveThreadRemovesOnAck verifies the thread leaves memory once the
// server acknowledges archival.
func TestArchiveThreadRemovesOnAck(t *testing.T) {
	client, _ := connectedClient(t, func(env SentEnvelope) [][]byte {
		if env.EventType == "ArchiveThread" {
			threadID := env.Data.Get("thread.idOnExternalPlatform").String()
			return [][]byte{[]byte(`{
				"eventId": "` + env.EventID + `",
				"eventType": "ThreadArchived",
				"postback": {"eventType": "ThreadArchived", "data": {"thread": {"idOnExternalPlatform": "` + threadID + `"}}}
			}`)}
		}
		return nil
	})

	thread, err := client.CreateThread(nil)
	require.NoError(t, err)

	require.NoError(t, client.ArchiveThread(context.Background(), thread.ID))
	_, ok := client.Thread(thread.ID)
	assert.False(t, ok)
}

// TestArchiveUnknownThread verifies archiving a thread the client does not
// hold fails locally.
func TestArchiveUnknownThread(t *testing.T) {
	client, transport := connectedClient(t, nil)

	err := client.ArchiveThread(context.Background(), "missing")
	require.Error(t, err)
	assert.Len(t, transport.Sent(), 1, "no command may go out for an unknown thread")
}

// TestRefreshTokenUpdatesSession verifies a token refresh replaces the
// session token pair and persists it.
func TestRefreshTokenUpdatesSession(t *testing.T) {
	client, transport := connectedClient(t, func(env SentEnvelope) [][]byte {
		if env.EventType == "RefreshToken" {
			return [][]byte{[]byte(`{
				"eventId": "` + env.EventID + `",
				"eventType": "TokenRefreshed",
				"postback": {"eventType": "TokenRefreshed", "data": {"accessToken": {"token": "token-2", "expiresIn": 3600}}}
			}`)}
		}
		return nil
	})

	require.NoError(t, client.RefreshToken(context.Background()))

	sent, _ := transport.LastSent()
	assert.Equal(t, "register", sent.Action)
	assert.Equal(t, "token-1", sent.Data.Get("accessToken.token").String())

	session := client.Session()
	require.NotNil(t, session.Token)
	assert.Equal(t, "token-2", session.Token.Token)
	assert.Equal(t, "token-2", session.RefreshToken)
}

// TestUpdateThreadName verifies the rename rides in the thread reference and
// applies locally.
func TestUpdateThreadName(t *testing.T) {
	client, transport := connectedClient(t, nil)

	thread, err := client.CreateThread(nil)
	require.NoError(t, err)

	require.NoError(t, client.UpdateThreadName(context.Background(), thread.ID, "Billing question"))

	sent, _ := transport.LastSent()
	assert.Equal(t, "UpdateThread", sent.EventType)
	assert.Equal(t, "Billing question", sent.Data.Get("thread.threadName").String())

	renamed, ok := client.Thread(thread.ID)
	require.True(t, ok)
	assert.Equal(t, "Billing question", renamed.Name)
}

// TestSetCustomFieldsMergesLocally verifies fields apply locally after the
// command goes out.
func TestSetCustomFieldsMergesLocally(t *testing.T) {
	client, transport := connectedClient(t, nil)

	thread, err := client.CreateThread(nil)
	require.NoError(t, err)

	fields := []chatsdk.CustomField{{
		Ident:     "order",
		Value:     "A-1001",
		UpdatedAt: chatsdk.NewTimestamp(time.Now()),
	}}
	require.NoError(t, client.SetCustomFields(context.Background(), thread.ID, fields))

	sent, _ := transport.LastSent()
	assert.Equal(t, "SetCustomFields", sent.EventType)
	assert.Equal(t, "A-1001", sent.Data.Get("customFields.0.value").String())

	updated, _ := client.Thread(thread.ID)
	require.Len(t, updated.CustomFields, 1)
	assert.Equal(t, "order", updated.CustomFields[0].Ident)
}

// TestMarkMessagesSeen verifies the seen report goes out as a plain chat
// window event.
func TestMarkMessagesSeen(t *testing.T) {
	client, transport := connectedClient(t, nil)

	thread, err := client.CreateThread(nil)
	require.NoError(t, err)

	require.NoError(t, client.MarkMessagesSeen(context.Background(), thread.ID))

	sent, _ := transport.LastSent()
	assert.Equal(t, "MessageSeenByCustomer", sent.EventType)
	assert.Equal(t, "chatWindowEvent", sent.Action)
}

// TestExecuteTrigger verifies the trigger id rides in the command body.
func TestExecuteTrigger(t *testing.T) {
	client, transport := connectedClient(t, nil)

	require.NoError(t, client.ExecuteTrigger(context.Background(), "trigger-9"))

	sent, _ := transport.LastSent()
	assert.Equal(t, "ExecuteTrigger", sent.EventType)
	assert.Equal(t, "trigger-9", sent.Data.Get("trigger.id").String())
}

// TestSendMessageUnknownThread verifies sending into an unknown thread fails
// locally.
func TestSendMessageUnknownThread(t *testing.T) {
	client, transport := connectedClient(t, nil)

	_, err := client.SendMessage(context.Background(), "missing", "hello")
	require.Error(t, err)
	assert.Len(t, transport.Sent(), 1)
}

// TestRecoverThreadUsesCachedThreadID verifies recovery with no explicit id
// falls back to the last locally created thread.
func TestRecoverThreadUsesCachedThreadID(t *testing.T) {
	client, transport := connectedClient(t, func(env SentEnvelope) [][]byte {
		if env.EventType == "RecoverThread" {
			threadID := env.Data.Get("thread.idOnExternalPlatform").String()
			return [][]byte{[]byte(`{
				"eventId": "` + env.EventID + `",
				"eventType": "ThreadRecovered",
				"postback": {"eventType": "ThreadRecovered", "data": {
					"thread": {"idOnExternalPlatform": "` + threadID + `"},
					"messages": [],
					"scrollToken": ""
				}}
			}`)}
		}
		return nil
	})

	created, err := client.CreateThread(nil)
	require.NoError(t, err)

	recovered, err := client.RecoverThread(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, recovered.ID)

	sent, _ := transport.LastSent()
	assert.Equal(t, created.ID, sent.Data.Get("thread.idOnExternalPlatform").String())
}

// TestExpiredTokenRefreshedBeforeSend verifies a lapsed access token is
// renewed before a chat window event goes out.
func TestExpiredTokenRefreshedBeforeSend(t *testing.T) {
	transport := NewMockTransport()
	transport.Respond(func(env SentEnvelope) [][]byte {
		switch env.EventType {
		case "AuthorizeCustomer":
			return [][]byte{[]byte(`{
				"eventId": "` + env.EventID + `",
				"eventType": "ConsumerAuthorized",
				"postback": {"eventType": "ConsumerAuthorized", "data": {
					"consumerIdentity": {"idOnExternalPlatform": "customer-1"},
					"accessToken": {"token": "token-1", "expiresIn": -1},
					"channel": {"hasMultipleThreadsPerEndUser": true}
				}}
			}`)}
		case "RefreshToken":
			return [][]byte{[]byte(`{
				"eventId": "` + env.EventID + `",
				"eventType": "TokenRefreshed",
				"postback": {"eventType": "TokenRefreshed", "data": {"accessToken": {"token": "token-2", "expiresIn": 3600}}}
			}`)}
		case "SendMessage":
			threadID := env.Data.Get("thread.idOnExternalPlatform").String()
			return [][]byte{messageCreatedFrame(env.EventID, threadID, "m-1", "hello")}
		}
		return nil
	})

	client, _ := newTestClient(t, transport)
	require.NoError(t, client.Connect(context.Background()))
	defer client.SignOut()

	thread, err := client.CreateThread(nil)
	require.NoError(t, err)
	_, err = client.SendMessage(context.Background(), thread.ID, "hello")
	require.NoError(t, err)

	var types []string
	for _, env := range transport.Sent() {
		types = append(types, env.EventType)
	}
	assert.Equal(t, []string{"AuthorizeCustomer", "RefreshToken", "SendMessage"}, types)
	assert.Equal(t, "token-2", client.Session().RefreshToken)
}
