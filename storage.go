package chatsdk

import "sync"

// Well-known keys for the injected value store. The core imposes no structure
// beyond these names.
const (
	StorageKeyCustomerID   = "customerId"
	StorageKeyAccessToken  = "accessToken"
	StorageKeyRefreshToken = "refreshToken"
	StorageKeyThreadID     = "cachedThreadId"
	StorageKeyVisitorID    = "visitorId"
)

// ValueStore is the persisted-state collaborator. Implementations map to
// whatever the host platform offers (keychain, preferences, a file); the core
// never depends on a specific mechanism.
type ValueStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
	// Purge removes every stored value. Called on sign-out.
	Purge()
}

// MemoryStore is the reference ValueStore, safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

func (s *MemoryStore) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
}
