package storage

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Defaults applied when a config field is unset
const (
	DefaultEndpoint       = "http://localhost:5000"
	DefaultRequestTimeout = 30 * time.Second
	DefaultTheme          = "auto"
	DefaultLogLevel       = "info"
	DefaultAuditFile      = "audit.jsonl"
)

// Environment overrides
const (
	EnvHome     = "PLAYAUTH_HOME"
	EnvEndpoint = "PLAYAUTH_ENDPOINT"
	EnvTheme    = "PLAYAUTH_THEME"
	EnvLogLevel = "PLAYAUTH_LOG_LEVEL"
)

// Duration is a time.Duration that reads and writes as "30s" in JSON
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		d.Duration = parsed
	case float64:
		// Bare numbers are seconds
		d.Duration = time.Duration(v * float64(time.Second))
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}
	return nil
}

// Config represents the application configuration
type Config struct {
	// Base URL of the identity service, e.g. http://localhost:5000
	Endpoint        string   `json:"endpoint"`
	RegistrationURL string   `json:"registration_url,omitempty"`
	RequestTimeout  Duration `json:"request_timeout"`
	StrictStatus    bool     `json:"strict_status"`

	// Copy the stored API key into the phone number field whenever it changes
	PrefillPhoneFromKey *bool `json:"prefill_phone_from_key,omitempty"`
	PersistKey          *bool `json:"persist_key,omitempty"`

	Theme     string       `json:"theme"`
	ThemeFile string       `json:"theme_file,omitempty"`
	LogLevel  string       `json:"log_level"`
	Audit     *AuditConfig `json:"audit"`
}

// AuditConfig controls the auth audit log
type AuditConfig struct {
	Enabled bool   `json:"enabled"`
	File    string `json:"file"`
}

// ShouldPrefillPhone reports whether the prefill behaviour is enabled
func (c *Config) ShouldPrefillPhone() bool {
	return c.PrefillPhoneFromKey == nil || *c.PrefillPhoneFromKey
}

// ShouldPersistKey reports whether the API key is written to the keystore
func (c *Config) ShouldPersistKey() bool {
	return c.PersistKey == nil || *c.PersistKey
}

// ConfigManager handles configuration storage and retrieval
type ConfigManager struct {
	configDir  string
	configFile string
	logger     *log.Logger
}

// NewConfigManager creates a new ConfigManager rooted at configDir
func NewConfigManager(configDir string, logger *log.Logger) *ConfigManager {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &ConfigManager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
		logger:     logger,
	}
}

// GetConfigDir returns the configuration directory path, creating it if needed
func GetConfigDir() (string, error) {
	configDir := os.Getenv(EnvHome)
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".playauth")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// ConfigDir returns the directory this manager reads from
func (cm *ConfigManager) ConfigDir() string {
	return cm.configDir
}

// LoadConfig loads the application configuration
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	if _, err := os.Stat(cm.configFile); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := cm.SaveConfig(config); err != nil {
			cm.logger.Warn("Failed to save default config", "error", err)
		}
		return config, nil
	}

	data, err := os.ReadFile(cm.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	return &config, nil
}

// SaveConfig saves the application configuration
func (cm *ConfigManager) SaveConfig(config *Config) error {
	if err := os.MkdirAll(cm.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

// applyDefaults ensures all config fields have default values
func applyDefaults(config *Config) {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.RequestTimeout.Duration <= 0 {
		config.RequestTimeout = Duration{DefaultRequestTimeout}
	}
	if config.Theme == "" {
		config.Theme = DefaultTheme
	}
	if config.LogLevel == "" {
		config.LogLevel = DefaultLogLevel
	}
	if config.Audit == nil {
		config.Audit = &AuditConfig{
			Enabled: true,
			File:    DefaultAuditFile,
		}
	}
	if config.Audit.File == "" {
		config.Audit.File = DefaultAuditFile
	}
}

// ApplyEnv overlays environment variable overrides onto config
func ApplyEnv(config *Config) {
	if v := os.Getenv(EnvEndpoint); v != "" {
		config.Endpoint = v
	}
	if v := os.Getenv(EnvTheme); v != "" {
		config.Theme = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.LogLevel = strings.ToLower(v)
	}
}

// Validate validates the configuration
func (cm *ConfigManager) Validate(config *Config) error {
	return ValidateConfig(config)
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	u, err := url.Parse(config.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint has no host")
	}

	if config.RegistrationURL != "" {
		if _, err := url.ParseRequestURI(config.RegistrationURL); err != nil {
			return fmt.Errorf("invalid registration URL: %w", err)
		}
	}

	if config.RequestTimeout.Duration < 0 {
		return fmt.Errorf("request timeout cannot be negative")
	}

	validLevel := false
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if config.LogLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	return nil
}
