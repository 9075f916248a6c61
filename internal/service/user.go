package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"filebox-backend/internal/models"
	"filebox-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles registration, login checks and role changes
type UserService struct {
	store    repository.UserStore
	validate *validator.Validate
	log      logrus.FieldLogger
}

type registration struct {
	Username string `validate:"required,max=64,pathsafe"`
	Password string `validate:"required,max=72"` // bcrypt input limit
	Role     string
}

// NewUserService creates a user service
func NewUserService(store repository.UserStore, log logrus.FieldLogger) *UserService {
	v := validator.New()
	// usernames double as namespace directory names
	if err := v.RegisterValidation("pathsafe", func(fl validator.FieldLevel) bool {
		return ValidateName(fl.Field().String()) == nil
	}); err != nil {
		panic(fmt.Sprintf("service: register pathsafe validation: %v", err))
	}
	return &UserService{
		store:    store,
		validate: v,
		log:      log,
	}
}

// Register stores a new user with a bcrypt hash of password. The role is kept
// exactly as given; an empty role means models.RoleUser.
func (s *UserService) Register(ctx context.Context, username, password, role string) (*models.User, error) {
	if role == "" {
		role = models.RoleUser
	}
	if err := s.validate.Struct(registration{Username: username, Password: password, Role: role}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateUsername, username)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.log.WithError(err).Error("bcrypt hashing failed")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent signup
		if errors.Is(err, repository.ErrUserExists) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateUsername, username)
		}
		s.log.WithError(err).WithField("username", username).Error("failed to save user")
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.log.WithFields(logrus.Fields{"username": username, "role": role}).Info("user registered")
	return user, nil
}

// Verify returns the user when password matches the stored hash. Unknown
// users and wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SetRole changes a user's role. Only the admin CLI calls this.
func (s *UserService) SetRole(ctx context.Context, username, role string) error {
	if role == "" {
		return fmt.Errorf("%w: role must not be empty", ErrInvalidInput)
	}
	if err := s.store.UpdateRole(ctx, username, role); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("user %q: %w", username, repository.ErrUserNotFound)
		}
		return fmt.Errorf("failed to update role: %w", err)
	}
	s.log.WithFields(logrus.Fields{"username": username, "role": role}).Info("role changed")
	return nil
}

// ListUsers returns all users ordered by username
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.store.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
