package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"filebox-backend/internal/models"
)

// InMemoryStore is an in-memory implementation of Store
type InMemoryStore struct {
	mu              sync.RWMutex
	nextID          int64
	usersByUsername map[string]*models.User
}

// NewInMemoryStore creates an empty in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		usersByUsername: make(map[string]*models.User),
	}
}

func (s *InMemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return fmt.Errorf("user '%s': %w", user.Username, ErrUserExists)
	}

	s.nextID++
	user.ID = s.nextID
	stored := *user
	s.usersByUsername[user.Username] = &stored
	return nil
}

func (s *InMemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return nil, fmt.Errorf("user '%s': %w", username, ErrUserNotFound)
	}
	copied := *user
	return &copied, nil
}

func (s *InMemoryStore) UpdateRole(ctx context.Context, username, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return fmt.Errorf("user '%s': %w", username, ErrUserNotFound)
	}
	user.Role = role
	return nil
}

func (s *InMemoryStore) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *InMemoryStore) Close() {}
