package storage

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// Storage is the main storage manager that coordinates all storage components
type Storage struct {
	KeyStore      *KeyStore
	ConfigManager *ConfigManager
	AuditLogger   *AuditLogger
	configDir     string
	logger        *log.Logger
}

// New creates a Storage rooted at the default config directory
func New(logger *log.Logger) (*Storage, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	return NewAt(configDir, logger)
}

// NewAt creates a Storage with all components rooted at configDir
func NewAt(configDir string, logger *log.Logger) (*Storage, error) {
	if logger == nil {
		logger = log.New(os.Stderr)
	}

	keyStore, err := NewKeyStore(configDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keystore: %w", err)
	}

	configManager := NewConfigManager(configDir, logger)

	config, err := configManager.LoadConfig()
	if err != nil {
		logger.Warn("Failed to load config, using defaults", "error", err)
		config = DefaultConfig()
	}

	auditLogger, err := NewAuditLogger(configDir, config.Audit, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit logger: %w", err)
	}

	return &Storage{
		KeyStore:      keyStore,
		ConfigManager: configManager,
		AuditLogger:   auditLogger,
		configDir:     configDir,
		logger:        logger,
	}, nil
}

// ConfigDir returns the directory all components live in
func (s *Storage) ConfigDir() string {
	return s.configDir
}

// Initialize performs initial setup and validation
func (s *Storage) Initialize() error {
	config, err := s.ConfigManager.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := s.ConfigManager.Validate(config); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	s.logger.Debug("Storage system initialized", "dir", s.configDir)
	return nil
}

// Shutdown closes the audit log
func (s *Storage) Shutdown() error {
	if err := s.AuditLogger.Close(); err != nil {
		return err
	}
	s.logger.Debug("Storage shut down", "session", s.AuditLogger.SessionID())
	return nil
}
