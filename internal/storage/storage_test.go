package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func setupTestStorage(t *testing.T) (*Storage, string) {
	tempDir := t.TempDir()

	storage, err := NewAt(tempDir, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Failed to create Storage: %v", err)
	}

	return storage, tempDir
}

func TestStorage_New(t *testing.T) {
	storage, tempDir := setupTestStorage(t)

	if storage.KeyStore == nil {
		t.Error("Expected KeyStore to be initialized")
	}
	if storage.ConfigManager == nil {
		t.Error("Expected ConfigManager to be initialized")
	}
	if storage.AuditLogger == nil {
		t.Error("Expected AuditLogger to be initialized")
	}
	if storage.ConfigDir() != tempDir {
		t.Errorf("Expected config dir %s, got %s", tempDir, storage.ConfigDir())
	}

	// Loading config for the audit logger writes the defaults
	if _, err := os.Stat(filepath.Join(tempDir, "config.json")); err != nil {
		t.Errorf("Expected default config to be written: %v", err)
	}
}

func TestStorage_NewUsesPlayauthHome(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv(EnvHome, tempDir)

	storage, err := New(log.New(io.Discard))
	if err != nil {
		t.Fatalf("Failed to create Storage: %v", err)
	}
	if storage.ConfigDir() != tempDir {
		t.Errorf("Expected config dir %s, got %s", tempDir, storage.ConfigDir())
	}
}

func TestStorage_Initialize(t *testing.T) {
	storage, _ := setupTestStorage(t)

	if err := storage.Initialize(); err != nil {
		t.Fatalf("Failed to initialize storage: %v", err)
	}
}

func TestStorage_InitializeRejectsInvalidConfig(t *testing.T) {
	storage, _ := setupTestStorage(t)

	config := DefaultConfig()
	config.LogLevel = "verbose"
	if err := storage.ConfigManager.SaveConfig(config); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if err := storage.Initialize(); err == nil {
		t.Error("Expected validation error for invalid log level")
	}
}

func TestStorage_CrossComponentIntegration(t *testing.T) {
	storage, _ := setupTestStorage(t)

	if err := storage.KeyStore.Save("token-xyz", time.Now()); err != nil {
		t.Fatalf("Failed to save token: %v", err)
	}
	if err := storage.AuditLogger.Record(OutcomeSuccess, "5551234", 120*time.Millisecond, nil); err != nil {
		t.Fatalf("Failed to record audit event: %v", err)
	}
	if err := storage.AuditLogger.Record(OutcomeFailed, "5551234", 0, errors.New("boom")); err != nil {
		t.Fatalf("Failed to record audit event: %v", err)
	}

	events, err := storage.AuditLogger.Events()
	if err != nil {
		t.Fatalf("Failed to read audit events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 audit events, got %d", len(events))
	}

	has, err := storage.KeyStore.HasToken()
	if err != nil || !has {
		t.Errorf("Expected stored token, has=%v err=%v", has, err)
	}

	if err := storage.Shutdown(); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
	if storage.AuditLogger.file != nil {
		t.Error("Expected Shutdown to close the audit log")
	}
}
