package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filebox-backend/internal/models"
	"filebox-backend/internal/storage"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = &models.Session{Username: "alice", Role: models.RoleUser}
	bob   = &models.Session{Username: "bob", Role: models.RoleAdmin}
	carol = &models.Session{Username: "carol", Role: models.RoleUser}
)

func newFileService(t *testing.T, policy string) (*FileService, *storage.LocalStorage, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	local, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	svc, err := NewFileService(local, policy, logger)
	require.NoError(t, err)
	return svc, local, hook
}

func labels(entries []models.FileEntry, admin bool) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if admin {
			out = append(out, e.Path())
		} else {
			out = append(out, e.Name)
		}
	}
	return out
}

func fetchString(t *testing.T, svc *FileService, caller *models.Session, owner, name string) string {
	t.Helper()
	obj, err := svc.Fetch(context.Background(), caller, owner, name)
	require.NoError(t, err)
	defer obj.Body.Close()
	b, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	return string(b)
}

func TestFileService_Scenario(t *testing.T) {
	svc, _, _ := newFileService(t, PolicyPublic)
	ctx := context.Background()

	name, err := svc.Store(ctx, alice, "notes.txt", strings.NewReader("hi"))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", name)

	entries, err := svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, labels(entries, false))

	entries, err = svc.List(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice/notes.txt"}, labels(entries, true))

	// alice is not bob and not admin
	err = svc.Delete(ctx, alice, "bob", "notes.txt")
	assert.ErrorIs(t, err, ErrAccessDenied)

	require.NoError(t, svc.Delete(ctx, bob, "alice", "notes.txt"))

	_, err = svc.Fetch(ctx, nil, "alice", "notes.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileService_RoundTrip(t *testing.T) {
	svc, _, _ := newFileService(t, PolicyOwner)
	ctx := context.Background()

	payload := "\x00\x01binary\xffdata"
	_, err := svc.Store(ctx, alice, "blob.bin", strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, fetchString(t, svc, alice, "alice", "blob.bin"))
}

func TestFileService_StoreOverwrites(t *testing.T) {
	svc, _, _ := newFileService(t, PolicyOwner)
	ctx := context.Background()

	_, err := svc.Store(ctx, alice, "a.txt", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = svc.Store(ctx, alice, "a.txt", strings.NewReader("two"))
	require.NoError(t, err)

	assert.Equal(t, "two", fetchString(t, svc, alice, "alice", "a.txt"))
	entries, err := svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileService_StoredNamesAreListedVerbatim(t *testing.T) {
	svc, _, _ := newFileService(t, PolicyOwner)
	ctx := context.Background()

	for _, name := range []string{".filebox-x.part", " spaced.txt "} {
		got, err := svc.Store(ctx, alice, name, strings.NewReader("hi"))
		require.NoError(t, err)
		assert.Equal(t, name, got)
	}

	entries, err := svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{" spaced.txt ", ".filebox-x.part"}, labels(entries, false))
	assert.Equal(t, "hi", fetchString(t, svc, alice, "alice", " spaced.txt "))
}

func TestFileService_StoreEmptyNameIsNoop(t *testing.T) {
	svc, local, _ := newFileService(t, PolicyOwner)

	name, err := svc.Store(context.Background(), alice, "", strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Empty(t, name)

	_, err = os.Stat(filepath.Join(local.Root(), "alice"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileService_AdminUploadsIntoOwnNamespace(t *testing.T) {
	svc, local, _ := newFileService(t, PolicyOwner)

	_, err := svc.Store(context.Background(), bob, "report.pdf", strings.NewReader("pdf"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(local.Root(), "bob", "report.pdf"))
	require.NoError(t, err)
}

func TestFileService_StoreRejectsTraversal(t *testing.T) {
	svc, local, _ := newFileService(t, PolicyOwner)
	ctx := context.Background()

	for _, bad := range []string{"..", ".", "   ", "dir/..", "a\x00b"} {
		_, err := svc.Store(ctx, alice, bad, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidFilename, "name %q", bad)
	}

	// directory parts are stripped, never followed
	name, err := svc.Store(ctx, alice, "../bob/evil.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "evil.txt", name)
	_, err = os.Stat(filepath.Join(local.Root(), "bob", "evil.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(local.Root(), "alice", "evil.txt"))
	assert.NoError(t, err)

	name, err = svc.Store(ctx, alice, `C:\Users\alice\photo.jpg`, strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", name)
}

func TestFileService_DeleteIdempotent(t *testing.T) {
	svc, _, _ := newFileService(t, PolicyOwner)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, alice, "alice", "missing.txt"))
	require.NoError(t, svc.Delete(ctx, alice, "alice", "missing.txt"))
}

func TestFileService_DeleteIsolation(t *testing.T) {
	svc, _, hook := newFileService(t, PolicyOwner)
	ctx := context.Background()

	_, err := svc.Store(ctx, carol, "secret.txt", strings.NewReader("s"))
	require.NoError(t, err)

	err = svc.Delete(ctx, alice, "carol", "secret.txt")
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Equal(t, "s", fetchString(t, svc, carol, "carol", "secret.txt"))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestFileService_AdminDeletesAnything(t *testing.T) {
	svc, _, _ := newFileService(t, PolicyOwner)
	ctx := context.Background()

	_, err := svc.Store(ctx, carol, "c.txt", strings.NewReader("c"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, bob, "carol", "c.txt"))
	_, err = svc.Fetch(ctx, bob, "carol", "c.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileService_DeleteRejectsTraversal(t *testing.T) {
	svc, _, _ := newFileService(t, PolicyOwner)

	err := svc.Delete(context.Background(), bob, "alice", "../../users.db")
	assert.ErrorIs(t, err, ErrInvalidFilename)
}

func TestFileService_FetchPolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("owner", func(t *testing.T) {
		svc, _, _ := newFileService(t, PolicyOwner)
		_, err := svc.Store(ctx, carol, "c.txt", strings.NewReader("c"))
		require.NoError(t, err)

		_, err = svc.Fetch(ctx, nil, "carol", "c.txt")
		assert.ErrorIs(t, err, ErrUnauthenticated)
		_, err = svc.Fetch(ctx, alice, "carol", "c.txt")
		assert.ErrorIs(t, err, ErrAccessDenied)
		assert.Equal(t, "c", fetchString(t, svc, bob, "carol", "c.txt"))
		assert.Equal(t, "c", fetchString(t, svc, carol, "carol", "c.txt"))
	})

	t.Run("public", func(t *testing.T) {
		svc, _, _ := newFileService(t, PolicyPublic)
		_, err := svc.Store(ctx, carol, "c.txt", strings.NewReader("c"))
		require.NoError(t, err)

		assert.Equal(t, "c", fetchString(t, svc, nil, "carol", "c.txt"))
		assert.Equal(t, "c", fetchString(t, svc, alice, "carol", "c.txt"))

		_, err = svc.Fetch(ctx, nil, "carol", "..")
		assert.ErrorIs(t, err, ErrInvalidFilename)
	})
}

func TestFileService_ListCreatesNamespace(t *testing.T) {
	svc, local, _ := newFileService(t, PolicyOwner)

	entries, err := svc.List(context.Background(), carol)
	require.NoError(t, err)
	assert.Empty(t, entries)

	info, err := os.Stat(filepath.Join(local.Root(), "carol"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileService_RequiresCaller(t *testing.T) {
	svc, _, _ := newFileService(t, PolicyOwner)
	ctx := context.Background()

	_, err := svc.List(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.Store(ctx, nil, "a", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, svc.Delete(ctx, nil, "a", "b"), ErrUnauthenticated)
}

func TestNewFileService_UnknownPolicy(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := NewFileService(nil, "everyone", logger)
	assert.Error(t, err)
}
