package storage

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Outcome of a sign-in attempt
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailed   Outcome = "failed"
	OutcomeCleared  Outcome = "cleared"
)

// AuditEvent is a single line in the audit log
type AuditEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Outcome   Outcome   `json:"outcome"`
	// PhoneHash is a BLAKE2b digest keyed with the per-install audit key
	PhoneHash string `json:"phone_hash,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// AuditLogger appends sign-in outcomes to a JSONL file
type AuditLogger struct {
	mu        sync.Mutex
	path      string
	sessionID string
	hashKey   []byte
	enabled   bool
	file      *os.File
	logger    *log.Logger
}

// NewAuditLogger creates an audit logger writing to configDir/cfg.File
func NewAuditLogger(configDir string, cfg *AuditConfig, logger *log.Logger) (*AuditLogger, error) {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	if cfg == nil {
		cfg = &AuditConfig{Enabled: true, File: DefaultAuditFile}
	}

	path := cfg.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(configDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	hashKey, err := loadOrCreateKey(filepath.Join(configDir, auditKeyFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit key: %w", err)
	}

	return &AuditLogger{
		path:      path,
		sessionID: uuid.NewString(),
		hashKey:   hashKey,
		enabled:   cfg.Enabled,
		logger:    logger,
	}, nil
}

// SessionID returns the id shared by all events of this process
func (al *AuditLogger) SessionID() string {
	return al.sessionID
}

// HashPhone returns the digest recorded in place of a phone number
func (al *AuditLogger) HashPhone(phone string) string {
	if phone == "" {
		return ""
	}
	h, err := blake2b.New256(al.hashKey)
	if err != nil {
		return ""
	}
	h.Write([]byte(phone))
	return hex.EncodeToString(h.Sum(nil))
}

// Record appends an event for a sign-in attempt
func (al *AuditLogger) Record(outcome Outcome, phone string, latency time.Duration, cause error) error {
	if al == nil || !al.enabled {
		return nil
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		SessionID: al.sessionID,
		Outcome:   outcome,
		PhoneHash: al.HashPhone(phone),
		LatencyMs: latency.Milliseconds(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	if al.file == nil {
		f, err := os.OpenFile(al.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		al.file = f
	}

	if _, err := al.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return nil
}

// Close releases the audit file. A later Record reopens it.
func (al *AuditLogger) Close() error {
	if al == nil {
		return nil
	}
	al.mu.Lock()
	defer al.mu.Unlock()

	if al.file == nil {
		return nil
	}
	err := al.file.Close()
	al.file = nil
	if err != nil {
		return fmt.Errorf("failed to close audit log: %w", err)
	}
	return nil
}

// Events reads back every event in the log, skipping malformed lines
func (al *AuditLogger) Events() ([]AuditEvent, error) {
	al.mu.Lock()
	defer al.mu.Unlock()

	f, err := os.Open(al.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			al.logger.Warn("Skipping malformed audit line", "error", err)
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("failed to read audit log: %w", err)
	}
	return events, nil
}
