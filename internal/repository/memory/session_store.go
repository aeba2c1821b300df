package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"payops/internal/domain"
	"payops/internal/port"
)

type sessionEntry struct {
	data      []byte
	expiresAt time.Time
}

// SessionStore keeps wizard sessions in process memory. Expired entries are dropped lazily
// on access and by Sweep.
type SessionStore struct {
	mu      sync.Mutex
	entries map[string]sessionEntry
	now     func() time.Time
}

var _ port.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{entries: make(map[string]sessionEntry), now: time.Now}
}

func sessionKey(kind string, id uuid.UUID) string {
	return kind + ":" + id.String()
}

func (s *SessionStore) Save(_ context.Context, kind string, id uuid.UUID, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s session: %w", kind, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionKey(kind, id)] = sessionEntry{data: data, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *SessionStore) Load(_ context.Context, kind string, id uuid.UUID, dst any) error {
	key := sessionKey(kind, id)
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		return fmt.Errorf("decoding %s session: %w", kind, err)
	}
	return nil
}

func (s *SessionStore) Delete(_ context.Context, kind string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionKey(kind, id))
	return nil
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}
