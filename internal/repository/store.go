package repository

import (
	"context"
	"errors"
	"fmt"

	"filebox-backend/internal/models"
)

var (
	// ErrUserExists is returned by CreateUser when the username is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no row matches the username.
	ErrUserNotFound = errors.New("user not found")
)

// Supported values for the store driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// UserStore defines the credential operations backed by the users table
type UserStore interface {
	// CreateUser inserts the user and fills in its ID.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateRole(ctx context.Context, username, role string) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

// Store is a UserStore that owns a connection which must be released
type Store interface {
	UserStore
	Close()
}

// Open connects to the configured backend and applies pending migrations.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite:
		return NewSQLiteStore(ctx, dsn)
	case DriverPostgres:
		return NewPostgresStore(ctx, dsn)
	case DriverMemory:
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
