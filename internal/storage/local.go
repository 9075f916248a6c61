package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"filebox-backend/internal/models"
)

const (
	tempPrefix = ".filebox-"
	tempSuffix = ".part"
)

// LocalStorage stores files at {root}/{owner}/{name}
type LocalStorage struct {
	root string
}

// NewLocalStorage creates the upload root if needed
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("upload directory must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{root: abs}, nil
}

// Root returns the absolute upload root.
func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) EnsureNamespace(ctx context.Context, owner string) error {
	dir, err := s.namespaceDir(owner)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create namespace %q: %w", owner, err)
	}
	return nil
}

func (s *LocalStorage) List(ctx context.Context, owner string) ([]models.FileEntry, error) {
	dir, err := s.namespaceDir(owner)
	if err != nil {
		return nil, err
	}
	return readNamespace(dir, owner)
}

func (s *LocalStorage) ListAll(ctx context.Context) ([]models.FileEntry, error) {
	dirs, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	entries := []models.FileEntry{}
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files, err := readNamespace(filepath.Join(s.root, d.Name()), d.Name())
		if err != nil {
			return nil, err
		}
		entries = append(entries, files...)
	}
	return entries, nil
}

func (s *LocalStorage) Put(ctx context.Context, owner, name string, r io.Reader) error {
	path, err := s.filePath(owner, name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create namespace %q: %w", owner, err)
	}

	// staged at the root, which ListAll skips as a plain file
	tmp, err := os.CreateTemp(s.root, tempPrefix+"*"+tempSuffix)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to store file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Open(ctx context.Context, owner, name string) (*Object, error) {
	path, err := s.filePath(owner, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s/%s: %w", owner, name, ErrNotExist)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s/%s: %w", owner, name, ErrNotExist)
	}
	return &Object{Body: f, Size: info.Size(), ModifiedAt: info.ModTime()}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, owner, name string) error {
	path, err := s.filePath(owner, name)
	if err != nil {
		return err
	}
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", owner, name, ErrNotExist)
		}
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s/%s: %w", owner, name, ErrNotExist)
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", owner, name, ErrNotExist)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) namespaceDir(owner string) (string, error) {
	dir := filepath.Join(s.root, owner)
	if !s.contains(dir) || dir == s.root {
		return "", fmt.Errorf("namespace %q escapes upload directory", owner)
	}
	return dir, nil
}

func (s *LocalStorage) filePath(owner, name string) (string, error) {
	dir, err := s.namespaceDir(owner)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if filepath.Dir(path) != dir {
		return "", fmt.Errorf("file %q escapes namespace %q", name, owner)
	}
	return path, nil
}

func (s *LocalStorage) contains(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func readNamespace(dir, owner string) ([]models.FileEntry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.FileEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read namespace %q: %w", owner, err)
	}

	entries := make([]models.FileEntry, 0, len(items))
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		info, err := item.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		entries = append(entries, models.FileEntry{
			Owner:      owner,
			Name:       item.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
