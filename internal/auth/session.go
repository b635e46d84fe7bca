package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
)

// SessionStore maps bearer tokens to sessions. Implementations must be safe
// for concurrent use.
type SessionStore interface {
	// Get returns core.ErrUnauthenticated for unknown or expired tokens.
	Get(ctx context.Context, token string) (core.Session, error)
	Put(ctx context.Context, session core.Session) error
	// Invalidate is a no-op for unknown tokens.
	Invalidate(ctx context.Context, token string) error
}

// NewToken returns a random UUIDv4 string drawn from crypto/rand.
func NewToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return id.String(), nil
}

// NewSession mints a session for accountID that expires ttl after now.
// A ttl <= 0 yields a session without expiry.
func NewSession(accountID int64, ttl time.Duration, now time.Time) (core.Session, error) {
	token, err := NewToken()
	if err != nil {
		return core.Session{}, err
	}
	s := core.Session{
		Token:     token,
		AccountID: accountID,
		CreatedAt: now,
	}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	return s, nil
}

// MemorySessionStore keeps sessions in a bounded in-process LRU cache. When
// full, the least recently used session is evicted.
type MemorySessionStore struct {
	sessions *cache.LRUCache[core.Session]
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore(maxEntries int) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: cache.NewLRUCache[core.Session](maxEntries, 0),
	}
}

func (m *MemorySessionStore) Get(_ context.Context, token string) (core.Session, error) {
	if token == "" {
		return core.Session{}, core.ErrUnauthenticated
	}
	s, ok := m.sessions.Get(token)
	if !ok {
		return core.Session{}, core.ErrUnauthenticated
	}
	if s.Expired(time.Now()) {
		m.sessions.Delete(token)
		return core.Session{}, core.ErrUnauthenticated
	}
	return s, nil
}

func (m *MemorySessionStore) Put(_ context.Context, s core.Session) error {
	if s.Token == "" {
		return fmt.Errorf("put session: empty token")
	}
	m.sessions.SetUntil(s.Token, s, s.ExpiresAt)
	return nil
}

func (m *MemorySessionStore) Invalidate(_ context.Context, token string) error {
	m.sessions.Delete(token)
	return nil
}

// CleanExpired drops expired sessions. It lets a cache.Manager sweep the store.
func (m *MemorySessionStore) CleanExpired() int {
	return m.sessions.CleanExpired()
}

// Size returns the number of live or not yet swept sessions.
func (m *MemorySessionStore) Size() int {
	return m.sessions.Size()
}
