package chatsdk

import "encoding/json"

// ChatDelegate receives semantic notifications from the dispatch worker, one
// call per event, always after the corresponding state mutation so observers
// see consistent thread state. Embed NoopDelegate to implement only the
// methods you care about.
type ChatDelegate interface {
	// OnClientAuthorized fires when the session reaches ready.
	OnClientAuthorized(identity CustomerIdentity)
	// OnConfigurationLoaded fires when the channel configuration arrives.
	OnConfigurationLoaded(config ChannelConfiguration)
	// OnThreadAdded fires when a thread is created or first recovered.
	OnThreadAdded(thread ChatThread)
	// OnThreadsReceived fires with the customer's thread list.
	OnThreadsReceived(threads []ThreadRef)
	// OnThreadRecovered fires after a recovered snapshot is merged.
	OnThreadRecovered(thread ChatThread)
	// OnThreadRecoveryFailed fires when the server rejects a recover request.
	OnThreadRecoveryFailed(err *OperationError)
	// OnThreadArchived fires after archival is recorded.
	OnThreadArchived(threadID string)
	// OnThreadMetadataReceived fires with a thread's metadata.
	OnThreadMetadataReceived(threadID string, lastMessage *Message, owner *Agent)
	// OnMessageAdded fires after a new message is merged into a thread.
	OnMessageAdded(thread ChatThread, message Message)
	// OnCrossThreadMessageReceived fires for a message belonging to a thread
	// the client does not hold in memory.
	OnCrossThreadMessageReceived(threadID string, message Message)
	// OnMoreMessagesLoaded fires after an older page is merged.
	OnMoreMessagesLoaded(thread ChatThread)
	// OnAgentReadMessage fires after a read receipt is applied.
	OnAgentReadMessage(threadID string, messageID string)
	// OnMessageSeenChanged fires after a seen receipt is applied.
	OnMessageSeenChanged(threadID string, messageID string)
	// OnAgentTypingStarted and OnAgentTypingEnded report typing activity.
	OnAgentTypingStarted(threadID string, agent *Agent)
	OnAgentTypingEnded(threadID string, agent *Agent)
	// OnAssigneeChanged fires after agent assignment is replaced. The
	// previous agent is informational only.
	OnAssigneeChanged(threadID string, agent *Agent, previous *Agent)
	// OnCustomFieldsSet fires after custom fields are merged.
	OnCustomFieldsSet(threadID string, fields []CustomField)
	// OnProactiveAction fires for server-initiated proactive chat actions.
	OnProactiveAction(action ProactiveActionPayload)
	// OnUnhandledEvent fires for unrecognized discriminators. Inert otherwise.
	OnUnhandledEvent(eventType EventType, raw json.RawMessage)
	// OnError surfaces server errors not matching any pending operation and
	// decode anomalies worth reporting.
	OnError(err error)
	// OnConnectionLost fires when the transport drops. Fatal is true when
	// reconnection attempts are exhausted.
	OnConnectionLost(err error, fatal bool)
	// OnReconnected fires after an automatic reconnect reaches ready again.
	OnReconnected()
}

// NoopDelegate implements ChatDelegate with no-ops for every notification.
type NoopDelegate struct{}

func (NoopDelegate) OnClientAuthorized(CustomerIdentity)                       {}
func (NoopDelegate) OnConfigurationLoaded(ChannelConfiguration)                {}
func (NoopDelegate) OnThreadAdded(ChatThread)                                  {}
func (NoopDelegate) OnThreadsReceived([]ThreadRef)                             {}
func (NoopDelegate) OnThreadRecovered(ChatThread)                              {}
func (NoopDelegate) OnThreadRecoveryFailed(*OperationError)                    {}
func (NoopDelegate) OnThreadArchived(string)                                   {}
func (NoopDelegate) OnThreadMetadataReceived(string, *Message, *Agent)         {}
func (NoopDelegate) OnMessageAdded(ChatThread, Message)                        {}
func (NoopDelegate) OnCrossThreadMessageReceived(string, Message)              {}
func (NoopDelegate) OnMoreMessagesLoaded(ChatThread)                           {}
func (NoopDelegate) OnAgentReadMessage(string, string)                         {}
func (NoopDelegate) OnMessageSeenChanged(string, string)                       {}
func (NoopDelegate) OnAgentTypingStarted(string, *Agent)                       {}
func (NoopDelegate) OnAgentTypingEnded(string, *Agent)                         {}
func (NoopDelegate) OnAssigneeChanged(string, *Agent, *Agent)                  {}
func (NoopDelegate) OnCustomFieldsSet(string, []CustomField)                   {}
func (NoopDelegate) OnProactiveAction(ProactiveActionPayload)                  {}
func (NoopDelegate) OnUnhandledEvent(EventType, json.RawMessage)               {}
func (NoopDelegate) OnError(error)                                             {}
func (NoopDelegate) OnConnectionLost(error, bool)                              {}
func (NoopDelegate) OnReconnected()                                            {}
