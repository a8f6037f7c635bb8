package chatsdk

import (
	"log/slog"
)

// errorCodeRecoveringThreadFailed is the server error code for a failed
// thread recovery; it gets its own delegate notification.
const errorCodeRecoveringThreadFailed = "RecoveringThreadFailed"

// Dispatcher is the central decode/route state machine. One Dispatcher runs
// per connection, on a single logical worker: events are processed strictly
// in arrival order and never concurrently, while the transport's read loop
// keeps filling the buffered receive channel.
//
// Every decoded event goes through, in order: operation-error resolution,
// state merge into the ThreadStore, the delegate notification, and finally
// pending-operation resolution by event id. Observers and waiting callers
// always see state after the mutation.
type Dispatcher struct {
	registry *Registry
	store    *ThreadStore
	delegate ChatDelegate
	logger   *slog.Logger

	// Lifecycle hooks, wired by the client. Nil hooks are skipped.
	onAuthorized     func(*CustomerAuthorizedPayload)
	onTokenRefreshed func(AccessTokenWire)
}

// NewDispatcher creates a dispatcher over the given collaborators. A nil
// delegate defaults to no-ops; a nil logger disables logging.
func NewDispatcher(registry *Registry, store *ThreadStore, delegate ChatDelegate, logger *slog.Logger) *Dispatcher {
	if delegate == nil {
		delegate = NoopDelegate{}
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Dispatcher{
		registry: registry,
		store:    store,
		delegate: delegate,
		logger:   logger,
	}
}

// Run consumes the transport's inbound stream until it ends. It returns nil
// on clean closure and the transport error otherwise. Decode anomalies are
// logged, surfaced through the delegate, and never terminate the loop.
func (d *Dispatcher) Run(frames <-chan Inbound) error {
	for inb := range frames {
		if inb.Err != nil {
			return inb.Err
		}
		ev, err := DecodeEvent(inb.Data)
		if err != nil {
			d.logger.Warn("dropping undecodable frame", "err", err)
			d.delegate.OnError(err)
			continue
		}
		d.Process(ev)
	}
	return nil
}

// Process routes one decoded event. Exported for direct use in tests; the
// ordering contract only holds when calls come from a single goroutine.
func (d *Dispatcher) Process(ev DecodedEvent) {
	if ev.Error != nil {
		d.processError(ev)
		return
	}
	if ev.ServerError != nil && ev.Type == "" {
		// Fallback-shape error frame with no discriminator: reject the
		// matching pending operation or surface it, never drop it.
		matched := false
		if ev.EventID != "" {
			matched = d.registry.Reject(ev.EventID, ev.ServerError)
		}
		if !matched {
			d.delegate.OnError(ev.ServerError)
		}
		return
	}

	switch p := ev.Payload.(type) {
	case *CustomerAuthorizedPayload:
		if d.onAuthorized != nil {
			d.onAuthorized(p)
		}
		d.delegate.OnClientAuthorized(p.ConsumerIdentity)
		if p.Channel != nil {
			d.delegate.OnConfigurationLoaded(*p.Channel)
		}

	case *TokenRefreshedPayload:
		if d.onTokenRefreshed != nil {
			d.onTokenRefreshed(p.AccessToken)
		}

	case *MessageCreatedPayload:
		thread, added, known := d.store.ApplyMessageCreated(*p)
		switch {
		case !known:
			d.delegate.OnCrossThreadMessageReceived(threadIDOf(p.Thread, p.Message), p.Message)
		case added:
			d.delegate.OnMessageAdded(thread, p.Message)
		}

	case *MessageStatusPayload:
		d.processStatus(ev.Type, p)

	case *MoreMessagesLoadedPayload:
		if thread, ok := d.store.ApplyMoreMessagesLoaded(*p); ok {
			d.delegate.OnMoreMessagesLoaded(thread)
		}

	case *ThreadRecoveredPayload:
		thread, created := d.store.ApplyThreadRecovered(*p)
		if created {
			d.delegate.OnThreadAdded(thread)
		}
		d.delegate.OnThreadRecovered(thread)

	case *ThreadMetadataLoadedPayload:
		d.store.ApplyThreadMetadata(p.Thread.IDOnExternalPlatform, p.LastMessage)
		d.delegate.OnThreadMetadataReceived(p.Thread.IDOnExternalPlatform, p.LastMessage, p.OwnerAssignee)

	case *ThreadListFetchedPayload:
		d.delegate.OnThreadsReceived(p.Threads)

	case *ThreadArchivedPayload:
		// Archive-completion acknowledgment: the thread leaves memory.
		d.store.ApplyThreadArchived(p.Thread.IDOnExternalPlatform)
		d.store.RemoveThread(p.Thread.IDOnExternalPlatform)
		d.delegate.OnThreadArchived(p.Thread.IDOnExternalPlatform)

	case *CaseStatusChangedPayload:
		if p.Status == CaseStatusClosed {
			if d.store.ApplyThreadArchived(p.Thread.IDOnExternalPlatform) {
				d.delegate.OnThreadArchived(p.Thread.IDOnExternalPlatform)
			}
		}

	case *AssigneeChangedPayload:
		if d.store.ApplyAssigneeChanged(p.Thread.IDOnExternalPlatform, p.InboxAssignee) {
			d.delegate.OnAssigneeChanged(p.Thread.IDOnExternalPlatform, p.InboxAssignee, p.PreviousInboxAssignee)
		}

	case *AgentTypingPayload:
		if ev.Type == EventAgentTypingStarted {
			d.delegate.OnAgentTypingStarted(p.Thread.IDOnExternalPlatform, p.Agent)
		} else {
			d.delegate.OnAgentTypingEnded(p.Thread.IDOnExternalPlatform, p.Agent)
		}

	case *ProactiveActionPayload:
		d.delegate.OnProactiveAction(*p)

	case *CustomFieldsSetPayload:
		if d.store.ApplyCustomFields(p.Thread.IDOnExternalPlatform, p.CustomFields) {
			d.delegate.OnCustomFieldsSet(p.Thread.IDOnExternalPlatform, p.CustomFields)
		}

	case *GenericAckPayload:
		// Resolution above is the whole effect.

	case *UnknownPayload:
		d.delegate.OnUnhandledEvent(p.Type, p.Raw)

	default:
		d.logger.Debug("event type without dispatch rule", "eventType", ev.Type)
	}

	// Resolution comes last: a caller waking from its pending operation
	// observes the merged state. Some events are both a response and a push
	// (messageCreated); the merge above already handled that half.
	if ev.EventID != "" {
		if !d.registry.Resolve(ev.EventID, ev) && ev.Postback {
			d.logger.Debug("postback without pending operation", "eventId", ev.EventID, "eventType", ev.Type)
		}
	}
}

// processError routes an operation-error frame: reject the matching pending
// operation by transaction id (falling back to the frame's event id), or
// surface the error on the generic notification channel when nothing matches.
func (d *Dispatcher) processError(ev DecodedEvent) {
	opErr := ev.Error
	matched := false
	if opErr.TransactionID != "" {
		matched = d.registry.Reject(opErr.TransactionID, opErr)
	}
	if !matched && ev.EventID != "" {
		matched = d.registry.Reject(ev.EventID, opErr)
	}

	if opErr.Code == errorCodeRecoveringThreadFailed {
		d.delegate.OnThreadRecoveryFailed(opErr)
		return
	}
	if !matched {
		d.delegate.OnError(opErr)
	}
}

// processStatus applies a read or seen receipt and notifies on change only;
// duplicate and out-of-date receipts are no-ops.
func (d *Dispatcher) processStatus(eventType EventType, p *MessageStatusPayload) {
	var at *Timestamp
	kind := statusRead
	if eventType == EventMessageSeenChanged {
		kind = statusSeen
		at = p.Message.UserStatistics.SeenAt
	} else {
		at = p.Message.UserStatistics.ReadAt
	}
	if at == nil {
		ts := p.Message.CreatedAt
		at = &ts
	}

	threadID, changed := d.store.ApplyReadOrSeenChanged(p.Message.IDOnExternalPlatform, *at, kind)
	if !changed {
		return
	}
	if kind == statusSeen {
		d.delegate.OnMessageSeenChanged(threadID, p.Message.IDOnExternalPlatform)
	} else {
		d.delegate.OnAgentReadMessage(threadID, p.Message.IDOnExternalPlatform)
	}
}

// threadIDOf prefers the message's thread id and falls back to the envelope's
// thread reference.
func threadIDOf(ref ThreadRef, m Message) string {
	if m.ThreadIDOnExternalPlatform != "" {
		return m.ThreadIDOnExternalPlatform
	}
	return ref.IDOnExternalPlatform
}
