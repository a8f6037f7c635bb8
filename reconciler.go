package chatsdk

import (
	"sort"
	"sync"
)

// ThreadStore owns the canonical in-memory threads. Merge operations are
// idempotent and monotonic: replaying a duplicate or older event never
// regresses newer state, and unknown targets are tolerated by dropping the
// update (asynchronous delivery makes such gaps expected).
//
// Mutations happen only on the dispatch worker (single writer) plus explicit
// local thread creation; external readers take deep-copied snapshots.
type ThreadStore struct {
	mu      sync.RWMutex
	threads map[string]*ChatThread
}

// NewThreadStore creates an empty store.
func NewThreadStore() *ThreadStore {
	return &ThreadStore{threads: make(map[string]*ChatThread)}
}

// CreateThread registers a new local thread. Returns false when the id is
// already present.
func (s *ThreadStore) CreateThread(id, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.threads[id]; exists {
		return false
	}
	s.threads[id] = &ChatThread{
		ID:                 id,
		Name:               name,
		CanAddMoreMessages: true,
	}
	return true
}

// Thread returns a snapshot of one thread.
func (s *ThreadStore) Thread(id string) (ChatThread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[id]
	if !ok {
		return ChatThread{}, false
	}
	return t.clone(), true
}

// Threads returns snapshots of every known thread.
func (s *ThreadStore) Threads() []ChatThread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChatThread, 0, len(s.threads))
	for _, t := range s.threads {
		out = append(out, t.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RenameThread updates the local thread name.
func (s *ThreadStore) RenameThread(id, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return false
	}
	t.Name = name
	return true
}

// RemoveThread drops a thread from memory (archive ack, sign-out).
func (s *ThreadStore) RemoveThread(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, id)
}

// Clear drops all threads. Threads are scoped to the connection session and
// invalidated together on sign-out.
func (s *ThreadStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads = make(map[string]*ChatThread)
}

// ApplyMessageCreated appends the message to its thread unless a message with
// the same id is already present (idempotent merge). A contact id carried by
// the event migrates the thread's pending-contact placeholder. Archived
// threads still accept trailing inbound messages. Returns the updated
// snapshot and whether the message was newly added; known is false when the
// thread is not held in memory (cross-thread message).
func (s *ThreadStore) ApplyMessageCreated(p MessageCreatedPayload) (thread ChatThread, added, known bool) {
	threadID := p.Message.ThreadIDOnExternalPlatform
	if threadID == "" {
		threadID = p.Thread.IDOnExternalPlatform
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return ChatThread{}, false, false
	}

	if p.Contact != nil && t.ContactID == "" {
		t.ContactID = p.Contact.ID
	}
	if t.containsMessage(p.Message.IDOnExternalPlatform) {
		return t.clone(), false, true
	}
	t.Messages = append(t.Messages, p.Message)
	sortMessages(t.Messages)
	return t.clone(), true, true
}

// ApplyMoreMessagesLoaded merges one older page, skipping messages already
// present, and replaces the scroll token. The page arrives newest first;
// after the merge the thread's messages remain ordered oldest first.
func (s *ThreadStore) ApplyMoreMessagesLoaded(p MoreMessagesLoadedPayload) (ChatThread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[p.Thread.IDOnExternalPlatform]
	if !ok {
		return ChatThread{}, false
	}

	for i := len(p.Messages) - 1; i >= 0; i-- {
		m := p.Messages[i]
		if t.containsMessage(m.IDOnExternalPlatform) {
			continue
		}
		t.Messages = append(t.Messages, m)
	}
	sortMessages(t.Messages)
	t.ScrollToken = p.ScrollToken
	return t.clone(), true
}

// statusKind selects which receipt timestamp a status event advances.
type statusKind int

const (
	statusRead statusKind = iota
	statusSeen
)

// ApplyReadOrSeenChanged locates the message by id across all threads and
// advances the corresponding timestamp, but only when currently unset or
// older (monotonic). Returns the owning thread id and whether anything
// changed; a message never seen is silently dropped.
func (s *ThreadStore) ApplyReadOrSeenChanged(messageID string, at Timestamp, kind statusKind) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.threads {
		for i := range t.Messages {
			if t.Messages[i].IDOnExternalPlatform != messageID {
				continue
			}
			stats := &t.Messages[i].UserStatistics
			var slot **Timestamp
			switch kind {
			case statusRead:
				slot = &stats.ReadAt
			case statusSeen:
				slot = &stats.SeenAt
			}
			if *slot != nil && !(*slot).Before(at) {
				return t.ID, false
			}
			ts := at
			*slot = &ts
			return t.ID, true
		}
	}
	return "", false
}

// ApplyAssigneeChanged replaces the thread's assigned agent. The previous
// agent is not stored; it is surfaced to subscribers only.
func (s *ThreadStore) ApplyAssigneeChanged(threadID string, agent *Agent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return false
	}
	t.InboxAssignee = agent
	return true
}

// ApplyContactIDResolved sets the thread's contact id once. A thread lacking
// a contact id is a valid transient state and blocks nothing.
func (s *ThreadStore) ApplyContactIDResolved(threadID, contactID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok || t.ContactID != "" {
		return false
	}
	t.ContactID = contactID
	return true
}

// ApplyThreadArchived records archival. Inbound merges remain accepted; only
// new outbound sends are rejected, upstream of this component.
func (s *ThreadStore) ApplyThreadArchived(threadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return false
	}
	t.CanAddMoreMessages = false
	return true
}

// ApplyThreadRecovered folds a recovered snapshot into the store, creating
// the thread when absent. Message merge follows the same idempotent rules as
// page loading.
func (s *ThreadStore) ApplyThreadRecovered(p ThreadRecoveredPayload) (ChatThread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := p.Thread.IDOnExternalPlatform
	t, ok := s.threads[id]
	created := false
	if !ok {
		t = &ChatThread{ID: id, CanAddMoreMessages: true}
		s.threads[id] = t
		created = true
	}

	if p.Thread.ThreadName != "" {
		t.Name = p.Thread.ThreadName
	}
	for _, m := range p.Messages {
		if !t.containsMessage(m.IDOnExternalPlatform) {
			t.Messages = append(t.Messages, m)
		}
	}
	sortMessages(t.Messages)
	t.ScrollToken = p.ScrollToken
	if p.Contact != nil && t.ContactID == "" {
		t.ContactID = p.Contact.ID
	}
	if p.InboxAssignee != nil {
		t.InboxAssignee = p.InboxAssignee
	}
	if p.CanAddMoreMessages != nil {
		t.CanAddMoreMessages = *p.CanAddMoreMessages
	}
	mergeCustomFields(t, p.CustomFields)
	return t.clone(), created
}

// ApplyThreadMetadata merges a thread's metadata: the last message is folded
// into the message list when unseen. Unknown threads are dropped.
func (s *ThreadStore) ApplyThreadMetadata(threadID string, lastMessage *Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return false
	}
	if lastMessage != nil && !t.containsMessage(lastMessage.IDOnExternalPlatform) {
		t.Messages = append(t.Messages, *lastMessage)
		sortMessages(t.Messages)
	}
	return true
}

// ApplyCustomFields merges fields into the thread. Per key, the later
// UpdatedAt wins regardless of arrival order.
func (s *ThreadStore) ApplyCustomFields(threadID string, fields []CustomField) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return false
	}
	mergeCustomFields(t, fields)
	return true
}

func mergeCustomFields(t *ChatThread, fields []CustomField) {
	for _, f := range fields {
		replaced := false
		for i := range t.CustomFields {
			if t.CustomFields[i].Ident != f.Ident {
				continue
			}
			if f.UpdatedAt.After(t.CustomFields[i].UpdatedAt) {
				t.CustomFields[i] = f
			}
			replaced = true
			break
		}
		if !replaced {
			t.CustomFields = append(t.CustomFields, f)
		}
	}
}

// sortMessages restores the invariant that messages sit in creation-time
// order after any merge. The sort is stable so equal timestamps keep their
// merge order.
func sortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
