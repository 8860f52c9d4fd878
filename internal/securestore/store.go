// Package securestore keeps the session secrets (access token, refresh token
// and the cached user) in an app-private key-value store.
package securestore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"banas-client/internal/config"
)

// ErrNotFound is returned by Get when nothing is stored under the key
var ErrNotFound = errors.New("securestore: key not found")

// Store is a string key-value store. Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Open builds the backend selected by cfg.Storage.Driver
func Open(cfg *config.Config, log *logrus.Entry) (Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "file", "":
		sealer, err := NewSealer(passphrase(cfg, log))
		if err != nil {
			return nil, err
		}
		return NewFileStore(cfg.Storage.Path, sealer, log), nil
	case "redis":
		sealer, err := NewSealer(passphrase(cfg, log))
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		return NewRedisStore(client, cfg.Storage.Redis.Prefix, sealer), nil
	default:
		return nil, fmt.Errorf("securestore: unknown driver %q", cfg.Storage.Driver)
	}
}

// passphrase falls back to a host-bound value so a fresh install works
// without configuration. The fallback is guessable and is logged as a
// security downgrade.
func passphrase(cfg *config.Config, log *logrus.Entry) string {
	if cfg.Storage.Passphrase != "" {
		return cfg.Storage.Passphrase
	}
	host, _ := os.Hostname()
	dir, _ := os.UserConfigDir()
	log.WithField("security_downgrade", true).
		Error("storage.passphrase not set: secrets are sealed with a host-derived key that is not secret, set BANAS_STORAGE_PASSPHRASE")
	return "banas:" + host + ":" + dir
}
