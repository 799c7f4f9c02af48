package store

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

const (
	// keyPrefix namespaces conversation keys in the durable backend.
	keyPrefix = "conv:"

	// ConversationTTL is how long a conversation survives in the durable
	// backend without being rewritten. The in-memory map has no expiry.
	ConversationTTL = 604800 * time.Second // 7 days
)

// KV is a durable key-value backend with expiry. Implementations are
// best-effort: the session store treats every returned error as non-fatal.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Name() string
	Close() error
}

// SessionStore holds conversation transcripts in an in-memory map, mirrored
// to an optional durable backend. The map is authoritative for the current
// process; the durable backend only adds persistence across restarts. No
// durable-backend failure is ever surfaced to callers.
type SessionStore struct {
	mu      sync.RWMutex
	memory  map[string]Conversation
	durable KV // nil when no durable backend is configured
}

// NewSessionStore creates a session store. durable may be nil for
// in-memory-only mode.
func NewSessionStore(durable KV) *SessionStore {
	return &SessionStore{
		memory:  make(map[string]Conversation),
		durable: durable,
	}
}

// Get looks up a conversation, durable backend first. Durable failures log
// and fall through; the in-memory map always has the final word.
func (s *SessionStore) Get(ctx context.Context, conversationID string) (Conversation, bool) {
	if s.durable != nil {
		raw, found, err := s.durable.Get(ctx, keyPrefix+conversationID)
		if err != nil {
			log.Printf("%s get error for conversation %s: %v", s.durable.Name(), conversationID, err)
		} else if found {
			var conv Conversation
			if err := json.Unmarshal([]byte(raw), &conv); err != nil {
				log.Printf("failed to decode stored conversation %s: %v", conversationID, err)
			} else {
				return conv, true
			}
		}
	}

	s.mu.RLock()
	conv, ok := s.memory[conversationID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	// Hand out a copy: two requests appending to the same returned slice
	// must never share a backing array with each other or with the stored
	// conversation.
	return conv.clone(), true
}

// Save writes the conversation to the in-memory map unconditionally, then to
// the durable backend with the fixed TTL. The returned bool reports only
// whether the durable write succeeded; callers use it as a diagnostic label,
// never as a correctness signal.
func (s *SessionStore) Save(ctx context.Context, conversationID string, conv Conversation) bool {
	s.mu.Lock()
	s.memory[conversationID] = conv.clone()
	s.mu.Unlock()

	if s.durable == nil {
		return false
	}

	data, err := json.Marshal(conv)
	if err != nil {
		log.Printf("failed to encode conversation %s: %v", conversationID, err)
		return false
	}
	if err := s.durable.Set(ctx, keyPrefix+conversationID, string(data), ConversationTTL); err != nil {
		log.Printf("%s save error for conversation %s: %v", s.durable.Name(), conversationID, err)
		return false
	}
	return true
}

// Delete removes the conversation from both backends. The returned bool
// reports whether the durable delete succeeded.
func (s *SessionStore) Delete(ctx context.Context, conversationID string) bool {
	s.mu.Lock()
	delete(s.memory, conversationID)
	s.mu.Unlock()

	if s.durable == nil {
		return false
	}
	if err := s.durable.Del(ctx, keyPrefix+conversationID); err != nil {
		log.Printf("%s delete error for conversation %s: %v", s.durable.Name(), conversationID, err)
		return false
	}
	return true
}

// Backend returns the durable backend's name, or "memory" when none is
// configured. Used for the storage label in responses and health checks.
func (s *SessionStore) Backend() string {
	if s.durable == nil {
		return "memory"
	}
	return s.durable.Name()
}

// DurableEnabled reports whether a durable backend is configured.
func (s *SessionStore) DurableEnabled() bool {
	return s.durable != nil
}

func (s *SessionStore) Close() error {
	if s.durable == nil {
		return nil
	}
	return s.durable.Close()
}
