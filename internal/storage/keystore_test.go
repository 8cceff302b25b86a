package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func setupTestKeyStore(t *testing.T) (*KeyStore, string) {
	tempDir := t.TempDir()

	keyStore, err := NewKeyStore(tempDir, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Failed to create KeyStore: %v", err)
	}

	return keyStore, tempDir
}

func TestKeyStore_SaveAndLoad(t *testing.T) {
	keyStore, _ := setupTestKeyStore(t)
	savedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := keyStore.Save("test-access-token", savedAt); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}

	creds, err := keyStore.Load()
	if err != nil {
		t.Fatalf("Failed to load token: %v", err)
	}

	if creds.AccessToken != "test-access-token" {
		t.Errorf("Expected token %s, got %s", "test-access-token", creds.AccessToken)
	}
	if !creds.SavedAt.Equal(savedAt) {
		t.Errorf("Expected saved time %v, got %v", savedAt, creds.SavedAt)
	}
}

func TestKeyStore_LoadEmpty(t *testing.T) {
	keyStore, _ := setupTestKeyStore(t)

	creds, err := keyStore.Load()
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if creds.AccessToken != "" {
		t.Errorf("Expected empty token, got %s", creds.AccessToken)
	}

	has, err := keyStore.HasToken()
	if err != nil {
		t.Fatalf("Failed to check token: %v", err)
	}
	if has {
		t.Error("Expected no token initially")
	}
}

func TestKeyStore_Clear(t *testing.T) {
	keyStore, _ := setupTestKeyStore(t)

	if err := keyStore.Save("token", time.Now()); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}
	if err := keyStore.Clear(); err != nil {
		t.Fatalf("Failed to clear token: %v", err)
	}

	has, err := keyStore.HasToken()
	if err != nil {
		t.Fatalf("Failed to check token: %v", err)
	}
	if has {
		t.Error("Expected token to be cleared")
	}

	// Clearing twice is fine
	if err := keyStore.Clear(); err != nil {
		t.Errorf("Second clear failed: %v", err)
	}
}

func TestKeyStore_Encryption(t *testing.T) {
	keyStore, tempDir := setupTestKeyStore(t)

	if err := keyStore.Save("plain-secret-token", time.Now()); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tempDir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to read credentials file: %v", err)
	}

	if string(data) == "plain-secret-token" || len(data) == 0 {
		t.Error("Credentials file is not encrypted")
	}

	info, err := os.Stat(filepath.Join(tempDir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to stat credentials file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected file permissions 0600, got %o", info.Mode().Perm())
	}
}

func TestKeyStore_Persistence(t *testing.T) {
	tempDir := t.TempDir()

	ks1, err := NewKeyStore(tempDir, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Failed to create first KeyStore: %v", err)
	}
	if err := ks1.Save("persisted", time.Now()); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}

	// A second instance reuses the key file
	ks2, err := NewKeyStore(tempDir, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Failed to create second KeyStore: %v", err)
	}
	creds, err := ks2.Load()
	if err != nil {
		t.Fatalf("Failed to load token: %v", err)
	}
	if creds.AccessToken != "persisted" {
		t.Errorf("Expected persisted token, got %q", creds.AccessToken)
	}
}

func TestKeyStore_CorruptedFile(t *testing.T) {
	keyStore, tempDir := setupTestKeyStore(t)

	path := filepath.Join(tempDir, "credentials.enc")
	if err := os.WriteFile(path, []byte("not encrypted at all, definitely"), 0600); err != nil {
		t.Fatalf("Failed to write corrupted file: %v", err)
	}

	creds, err := keyStore.Load()
	if err != nil {
		t.Fatalf("Expected corrupted file to be handled, got %v", err)
	}
	if creds.AccessToken != "" {
		t.Errorf("Expected empty credentials, got %q", creds.AccessToken)
	}
	if _, err := os.Stat(path + ".corrupted.backup"); err != nil {
		t.Errorf("Expected backup of corrupted file: %v", err)
	}
}
