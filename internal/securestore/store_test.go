package securestore

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banas-client/internal/config"
)

func testSealer(t *testing.T) *Sealer {
	t.Helper()
	s, err := NewSealer("correct horse battery staple")
	require.NoError(t, err)
	return s
}

func TestSealer_RoundTrip(t *testing.T) {
	s := testSealer(t)

	sealed, err := s.Seal("banas_access_token", "eyJhbGciOi")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "eyJhbGciOi")

	plain, err := s.Open("banas_access_token", sealed)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOi", plain)
}

func TestSealer_BindsKeyName(t *testing.T) {
	s := testSealer(t)

	sealed, err := s.Seal("banas_access_token", "secret")
	require.NoError(t, err)

	_, err = s.Open("banas_refresh_token", sealed)
	assert.Error(t, err)
}

func TestSealer_WrongPassphrase(t *testing.T) {
	sealed, err := testSealer(t).Seal("k", "v")
	require.NoError(t, err)

	other, err := NewSealer("another passphrase")
	require.NoError(t, err)
	_, err = other.Open("k", sealed)
	assert.Error(t, err)
}

func TestSealer_RejectsGarbage(t *testing.T) {
	s := testSealer(t)

	_, err := s.Open("k", "not base64!!")
	assert.Error(t, err)

	_, err = s.Open("k", "AAAA")
	assert.ErrorIs(t, err, errShortCiphertext)
}

func TestNewSealer_EmptyPassphrase(t *testing.T) {
	_, err := NewSealer("")
	assert.Error(t, err)
}

// exerciseStore runs the shared contract against any backend
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "banas_access_token", "a1"))
	require.NoError(t, s.Set(ctx, "banas_refresh_token", "r1"))

	v, err := s.Get(ctx, "banas_access_token")
	require.NoError(t, err)
	assert.Equal(t, "a1", v)

	require.NoError(t, s.Set(ctx, "banas_access_token", "a2"))
	v, err = s.Get(ctx, "banas_access_token")
	require.NoError(t, err)
	assert.Equal(t, "a2", v)

	require.NoError(t, s.Delete(ctx, "banas_access_token"))
	_, err = s.Get(ctx, "banas_access_token")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	require.NoError(t, s.Delete(ctx, "banas_access_token"))

	v, err = s.Get(ctx, "banas_refresh_token")
	require.NoError(t, err)
	assert.Equal(t, "r1", v)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "secure.json")
	exerciseStore(t, NewFileStore(path, testSealer(t), nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "r1\"")
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "secure.json")

	first := NewFileStore(path, testSealer(t), nil)
	require.NoError(t, first.Set(ctx, "banas_auth_user", `{"id":1}`))

	second := NewFileStore(path, testSealer(t), nil)
	v, err := second.Get(ctx, "banas_auth_user")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, v)
}

func TestFileStore_CorruptFileIsReplaced(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "secure.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	logger, hook := test.NewNullLogger()
	store := NewFileStore(path, testSealer(t), logrus.NewEntry(logger))

	_, err := store.Get(ctx, "banas_access_token")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Delete(ctx, "banas_access_token"))

	require.NoError(t, store.Set(ctx, "banas_access_token", "a1"))
	v, err := store.Get(ctx, "banas_access_token")
	require.NoError(t, err)
	assert.Equal(t, "a1", v)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "{not json")

	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, logrus.WarnLevel, hook.Entries[0].Level)
}

func TestSealer_OpensValuesFromAnotherInstance(t *testing.T) {
	sealed, err := testSealer(t).Seal("banas_refresh_token", "r1")
	require.NoError(t, err)

	plain, err := testSealer(t).Open("banas_refresh_token", sealed)
	require.NoError(t, err)
	assert.Equal(t, "r1", plain)
}

func TestSealer_SaltsDiffer(t *testing.T) {
	a, err := testSealer(t).Seal("k", "v")
	require.NoError(t, err)
	b, err := testSealer(t).Seal("k", "v")
	require.NoError(t, err)

	rawA, err := base64.StdEncoding.DecodeString(a)
	require.NoError(t, err)
	rawB, err := base64.StdEncoding.DecodeString(b)
	require.NoError(t, err)
	assert.NotEqual(t, rawA[:saltSize], rawB[:saltSize])
}

func TestOpen_HostFallbackIsFlagged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cfg := &config.Config{}
	cfg.Storage.Driver = "file"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "secure.json")

	_, err := Open(cfg, logrus.NewEntry(logger))
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, true, entry.Data["security_downgrade"])

	hook.Reset()
	cfg.Storage.Passphrase = "configured"
	_, err = Open(cfg, logrus.NewEntry(logger))
	require.NoError(t, err)
	assert.Empty(t, hook.Entries)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("BANAS_TEST_REDIS")
	if addr == "" {
		t.Skip("BANAS_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	store := NewRedisStore(client, "banas-test:"+strings.ReplaceAll(t.Name(), "/", "_")+":", testSealer(t))
	defer store.Close()

	require.NoError(t, store.Ping(context.Background()))
	exerciseStore(t, store)
}

func TestOpen_Drivers(t *testing.T) {
	log := logrus.NewEntry(logrus.New())

	cfg := &config.Config{}
	cfg.Storage.Driver = "memory"
	s, err := Open(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	cfg.Storage.Driver = "file"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "secure.json")
	s, err = Open(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	cfg.Storage.Driver = "redis"
	cfg.Storage.Passphrase = "p"
	cfg.Storage.Redis.Addr = "127.0.0.1:1"
	s, err = Open(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)

	cfg.Storage.Driver = "floppy"
	_, err = Open(cfg, log)
	assert.Error(t, err)
}
