// Package storage keeps uploaded blobs in per-owner namespaces.
//
// Backends address a file by (owner, name) and never interpret either value;
// callers validate both as single path components before reaching here.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"filebox-backend/internal/models"
)

// Supported values for the storage driver.
const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

// ErrNotExist is returned when the addressed file does not exist
var ErrNotExist = errors.New("file does not exist")

// Object is an open stored file. Body must be closed by the caller.
type Object struct {
	Body       io.ReadCloser
	Size       int64
	ModifiedAt time.Time
}

// Storage is the blob backend behind the file namespace manager
type Storage interface {
	// EnsureNamespace creates the owner's namespace if the backend needs one.
	EnsureNamespace(ctx context.Context, owner string) error
	// List returns the files in one namespace, sorted by name.
	List(ctx context.Context, owner string) ([]models.FileEntry, error)
	// ListAll returns every file of every namespace, sorted by owner then name.
	ListAll(ctx context.Context) ([]models.FileEntry, error)
	// Put writes r as (owner, name), replacing any existing file.
	Put(ctx context.Context, owner, name string, r io.Reader) error
	Open(ctx context.Context, owner, name string) (*Object, error)
	// Delete removes (owner, name) and returns ErrNotExist if it was absent.
	Delete(ctx context.Context, owner, name string) error
}

// Config selects and configures a backend.
type Config struct {
	Driver    string
	UploadDir string

	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

// New builds the backend selected by cfg.Driver.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case DriverLocal:
		return NewLocalStorage(cfg.UploadDir)
	case DriverS3:
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Storage(client, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
