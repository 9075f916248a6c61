package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"filebox-backend/internal/models"
	"filebox-backend/internal/storage"

	"github.com/sirupsen/logrus"
)

// Download policies.
const (
	// PolicyOwner applies the delete rule to downloads: owner or admin only.
	PolicyOwner = "owner"
	// PolicyPublic serves any (owner, file) pair without a session.
	PolicyPublic = "public"
)

// FileService scopes file operations to the caller's namespace, with an
// override for admins
type FileService struct {
	storage        storage.Storage
	downloadPolicy string
	log            logrus.FieldLogger
}

// NewFileService creates a file service over the given backend
func NewFileService(store storage.Storage, downloadPolicy string, log logrus.FieldLogger) (*FileService, error) {
	switch downloadPolicy {
	case PolicyOwner, PolicyPublic:
	default:
		return nil, fmt.Errorf("unknown download policy %q", downloadPolicy)
	}
	return &FileService{
		storage:        store,
		downloadPolicy: downloadPolicy,
		log:            log,
	}, nil
}

// DownloadPolicy returns the configured download policy.
func (s *FileService) DownloadPolicy() string {
	return s.downloadPolicy
}

// List returns every file of every namespace for admins, and only the
// caller's own files otherwise. The caller's namespace is created on first
// access.
func (s *FileService) List(ctx context.Context, caller *models.Session) ([]models.FileEntry, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	if caller.IsAdmin() {
		entries, err := s.storage.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list all files: %w", err)
		}
		return entries, nil
	}

	if err := ValidateName(caller.Username); err != nil {
		return nil, err
	}
	if err := s.storage.EnsureNamespace(ctx, caller.Username); err != nil {
		return nil, fmt.Errorf("failed to prepare namespace: %w", err)
	}
	entries, err := s.storage.List(ctx, caller.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return entries, nil
}

// Store writes r into the caller's own namespace under the cleaned filename
// and returns that name. An empty filename is a no-op returning "".
func (s *FileService) Store(ctx context.Context, caller *models.Session, filename string, r io.Reader) (string, error) {
	if caller == nil {
		return "", ErrUnauthenticated
	}
	if filename == "" {
		return "", nil
	}

	name, err := CleanUploadName(filename)
	if err != nil {
		return "", err
	}
	if err := ValidateName(caller.Username); err != nil {
		return "", err
	}

	if err := s.storage.Put(ctx, caller.Username, name, r); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"owner": caller.Username, "file": name}).Error("upload failed")
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	s.log.WithFields(logrus.Fields{"owner": caller.Username, "file": name}).Info("file stored")
	return name, nil
}

// Delete removes (owner, filename). Only the owner or an admin may delete;
// deleting a file that does not exist succeeds.
func (s *FileService) Delete(ctx context.Context, caller *models.Session, owner, filename string) error {
	if caller == nil {
		return ErrUnauthenticated
	}
	if !canAccess(caller, owner) {
		s.log.WithFields(logrus.Fields{"caller": caller.Username, "owner": owner, "file": filename}).Warn("delete denied")
		return ErrAccessDenied
	}
	if err := validatePair(owner, filename); err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, owner, filename); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.log.WithFields(logrus.Fields{"caller": caller.Username, "owner": owner, "file": filename}).Info("file deleted")
	return nil
}

// Fetch opens (owner, filename) for download. Under PolicyPublic caller may
// be nil; under PolicyOwner the delete rule applies.
func (s *FileService) Fetch(ctx context.Context, caller *models.Session, owner, filename string) (*storage.Object, error) {
	if s.downloadPolicy == PolicyOwner {
		if caller == nil {
			return nil, ErrUnauthenticated
		}
		if !canAccess(caller, owner) {
			return nil, ErrAccessDenied
		}
	}
	if err := validatePair(owner, filename); err != nil {
		return nil, err
	}

	obj, err := s.storage.Open(ctx, owner, filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, owner, filename)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return obj, nil
}

func canAccess(caller *models.Session, owner string) bool {
	return caller.IsAdmin() || caller.Username == owner
}

func validatePair(owner, filename string) error {
	if err := ValidateName(owner); err != nil {
		return err
	}
	return ValidateName(filename)
}
