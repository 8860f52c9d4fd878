package securestore

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const saltSize = 16

// argon2id parameters, RFC 9106 second recommended option
const (
	kdfTime    = 3
	kdfMemory  = 64 * 1024
	kdfThreads = 4
)

var errShortCiphertext = errors.New("securestore: ciphertext too short")

// Sealer encrypts values at rest with XChaCha20-Poly1305. Keys are derived
// from the passphrase with argon2id. Every sealed value carries the random
// salt its key was derived with, so values written by another process with
// the same passphrase still open.
type Sealer struct {
	passphrase []byte
	salt       []byte
	aead       cipher.AEAD

	mu    sync.Mutex
	known map[string]cipher.AEAD
}

func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("securestore: passphrase is required")
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("securestore: salt: %w", err)
	}

	s := &Sealer{passphrase: []byte(passphrase), salt: salt, known: map[string]cipher.AEAD{}}
	aead, err := s.cipherFor(salt)
	if err != nil {
		return nil, err
	}
	s.aead = aead
	return s, nil
}

// cipherFor derives, once per salt, the AEAD for values sealed with that salt
func (s *Sealer) cipherFor(salt []byte) (cipher.AEAD, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if aead, ok := s.known[string(salt)]; ok {
		return aead, nil
	}
	key := argon2.IDKey(s.passphrase, salt, kdfTime, kdfMemory, kdfThreads, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("securestore: init cipher: %w", err)
	}
	s.known[string(salt)] = aead
	return aead, nil
}

// Seal returns base64(salt || nonce || ciphertext). The key name is bound as
// associated data so a value cannot be moved to another key.
func (s *Sealer) Seal(key, plaintext string) (string, error) {
	nonceSize := s.aead.NonceSize()
	out := make([]byte, saltSize+nonceSize, saltSize+nonceSize+len(plaintext)+s.aead.Overhead())
	copy(out, s.salt)
	nonce := out[saltSize:]
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("securestore: nonce: %w", err)
	}
	out = s.aead.Seal(out, nonce, []byte(plaintext), []byte(key))
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *Sealer) Open(key, sealed string) (string, error) {
	buf, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("securestore: decode: %w", err)
	}
	nonceSize := s.aead.NonceSize()
	if len(buf) < saltSize+nonceSize {
		return "", errShortCiphertext
	}
	aead, err := s.cipherFor(buf[:saltSize])
	if err != nil {
		return "", err
	}
	nonce, ciphertext := buf[saltSize:saltSize+nonceSize], buf[saltSize+nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", fmt.Errorf("securestore: open %s: %w", key, err)
	}
	return string(plaintext), nil
}
