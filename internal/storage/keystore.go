package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Credentials is the persisted form of the playground API key
type Credentials struct {
	AccessToken string    `json:"access_token,omitempty"`
	SavedAt     time.Time `json:"saved_at,omitempty"`
}

const (
	credentialsFile = "credentials.enc"
	keyFile         = ".key"
	auditKeyFile    = ".audit_key"
	keySize         = 32
)

// KeyStore keeps the access token in an AES-GCM sealed file next to a
// per-install random key
type KeyStore struct {
	path   string
	aead   cipher.AEAD
	logger *log.Logger
}

// NewKeyStore creates a KeyStore rooted at configDir
func NewKeyStore(configDir string, logger *log.Logger) (*KeyStore, error) {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if logger == nil {
		logger = log.New(os.Stderr)
	}

	key, err := loadOrCreateKey(filepath.Join(configDir, keyFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &KeyStore{
		path:   filepath.Join(configDir, credentialsFile),
		aead:   aead,
		logger: logger,
	}, nil
}

// loadOrCreateKey reads the hex encoded key at path, generating it on first use
func loadOrCreateKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		key, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("failed to decode key file: %w", err)
		}
		if len(key) != keySize {
			return nil, fmt.Errorf("key file holds %d bytes, want %d", len(key), keySize)
		}
		return key, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)), 0600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return key, nil
}

// seal encrypts plaintext as nonce||ciphertext
func (ks *KeyStore) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, ks.aead.NonceSize(), ks.aead.NonceSize()+len(plaintext)+ks.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return ks.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (ks *KeyStore) open(sealed []byte) ([]byte, error) {
	n := ks.aead.NonceSize()
	if len(sealed) < n {
		return nil, errors.New("sealed data shorter than nonce")
	}
	plaintext, err := ks.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data: %w", err)
	}
	return plaintext, nil
}

// quarantine moves an unreadable credentials file aside so the next Save
// starts clean
func (ks *KeyStore) quarantine(reason error) {
	ks.logger.Warn("Stored credentials unreadable, starting fresh", "error", reason)

	backup := ks.path + ".corrupted.backup"
	if err := os.Rename(ks.path, backup); err != nil {
		ks.logger.Warn("Failed to move corrupted credentials aside", "error", err)
		return
	}
	ks.logger.Info("Moved corrupted credentials aside", "backup", backup)
}

// Load returns the stored credentials; empty credentials when none exist
func (ks *KeyStore) Load() (*Credentials, error) {
	sealed, err := os.ReadFile(ks.path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(sealed) == 0) {
		return &Credentials{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	plaintext, err := ks.open(sealed)
	if err != nil {
		// Written with another key or truncated
		ks.quarantine(err)
		return &Credentials{}, nil
	}

	creds := &Credentials{}
	if err := json.Unmarshal(plaintext, creds); err != nil {
		ks.quarantine(err)
		return &Credentials{}, nil
	}
	return creds, nil
}

// Save persists the access token
func (ks *KeyStore) Save(token string, savedAt time.Time) error {
	plaintext, err := json.Marshal(Credentials{AccessToken: token, SavedAt: savedAt})
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	sealed, err := ks.seal(plaintext)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}
	if err := os.WriteFile(ks.path, sealed, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// Clear removes the stored access token
func (ks *KeyStore) Clear() error {
	if err := os.Remove(ks.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// HasToken checks whether an access token is stored
func (ks *KeyStore) HasToken() (bool, error) {
	creds, err := ks.Load()
	if err != nil {
		return false, err
	}
	return creds.AccessToken != "", nil
}
