package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"filebox-backend/internal/models"

	"github.com/google/uuid"
)

// Supported values for the session driver.
const (
	DriverMemory = "memory"
	DriverCookie = "cookie"
)

// ErrSessionNotFound is returned for unknown, destroyed or expired sessions
var ErrSessionNotFound = errors.New("session not found")

// SessionStore binds an opaque client token to an authenticated identity
type SessionStore interface {
	Create(ctx context.Context, username, role string) (string, error)
	Get(ctx context.Context, token string) (*models.Session, error)
	// Destroy forgets the session. Unknown tokens are not an error.
	Destroy(ctx context.Context, token string) error
}

// NewSessionStore builds the store selected by driver.
func NewSessionStore(driver, secret string, ttl time.Duration) (SessionStore, error) {
	switch driver {
	case DriverMemory:
		return NewMemorySessionStore(ttl), nil
	case DriverCookie:
		tokens, err := NewTokenService(secret, ttl)
		if err != nil {
			return nil, err
		}
		return NewCookieSessionStore(tokens), nil
	default:
		return nil, fmt.Errorf("unknown session driver %q", driver)
	}
}

// MemorySessionStore keeps sessions in a process-local map keyed by random IDs
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates an empty store; sessions live for ttl
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Create(ctx context.Context, username, role string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	token := id.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = models.Session{
		Username:  username,
		Role:      role,
		ExpiresAt: s.now().Add(s.ttl),
	}
	return token, nil
}

func (s *MemorySessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	if session.Expired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (s *MemorySessionStore) Destroy(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemorySessionStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked sessions, expired ones included.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CookieSessionStore holds no server state: the token itself is a signed JWT.
// Destroy cannot revoke an issued token; logout relies on the client dropping
// the cookie and on the token's expiry.
type CookieSessionStore struct {
	tokens *TokenService
}

// NewCookieSessionStore creates a store backed by signed tokens
func NewCookieSessionStore(tokens *TokenService) *CookieSessionStore {
	return &CookieSessionStore{tokens: tokens}
}

func (s *CookieSessionStore) Create(ctx context.Context, username, role string) (string, error) {
	token, _, err := s.tokens.NewToken(username, role)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *CookieSessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	session, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	return session, nil
}

func (s *CookieSessionStore) Destroy(ctx context.Context, token string) error {
	return nil
}
