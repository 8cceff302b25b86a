package app

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/john/playauth/internal/api"
	"github.com/john/playauth/internal/playground"
	"github.com/john/playauth/internal/storage"
	"github.com/john/playauth/internal/ui/components"
	"github.com/john/playauth/internal/ui/styles"
)

// Initialization messages. Commands only do I/O and report back; the model
// is mutated when the message reaches Update.
type (
	initStartMsg    struct{}
	storageReadyMsg struct {
		storage *storage.Storage
		err     error
	}
	keystoreReadyMsg struct {
		credentials *storage.Credentials
		err         error
	}
	configReadyMsg struct {
		config *storage.Config
		err    error
	}
	initClientMsg   struct{}
	initCompleteMsg struct{}
	initErrorMsg    struct{ error }
)

// initializeStorage opens the playauth directory
func (m *Model) initializeStorage() tea.Cmd {
	dir := m.opts.ConfigDir
	logger := m.logger

	return func() tea.Msg {
		if dir == "" {
			d, err := storage.GetConfigDir()
			if err != nil {
				return storageReadyMsg{err: err}
			}
			dir = d
		}

		st, err := storage.NewAt(dir, logger)
		if err != nil {
			return storageReadyMsg{err: fmt.Errorf("storage initialization failed: %w", err)}
		}
		return storageReadyMsg{storage: st}
	}
}

// initializeKeystore loads a previously saved API key
func (m *Model) initializeKeystore() tea.Cmd {
	st := m.storage

	return func() tea.Msg {
		if st == nil || st.KeyStore == nil {
			return keystoreReadyMsg{credentials: &storage.Credentials{}}
		}

		creds, err := st.KeyStore.Load()
		if err != nil {
			return keystoreReadyMsg{credentials: &storage.Credentials{}, err: err}
		}
		return keystoreReadyMsg{credentials: creds}
	}
}

// initializeConfig loads config.json
func (m *Model) initializeConfig() tea.Cmd {
	st := m.storage

	return func() tea.Msg {
		if st == nil || st.ConfigManager == nil {
			return configReadyMsg{config: storage.DefaultConfig()}
		}

		config, err := st.ConfigManager.LoadConfig()
		if err != nil {
			return configReadyMsg{config: storage.DefaultConfig(), err: err}
		}
		return configReadyMsg{config: config}
	}
}

// handleInitializationMessages advances the init sequence one step per message
func (m *Model) handleInitializationMessages(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case initStartMsg:
		m.loadingState.SetStep(StepStorage)
		return m.initializeStorage()

	case storageReadyMsg:
		if msg.err != nil {
			m.logger.Warn("Storage unavailable, keeping the key in memory only", "error", msg.err)
			m.setStatusMessage("Storage unavailable: the API key will not be saved", 5*time.Second)
		}
		if m.storage != nil && m.storage != msg.storage {
			// Retrying initialization replaces the previous storage
			if err := m.storage.Shutdown(); err != nil {
				m.logger.Warn("Failed to shut down previous storage", "error", err)
			}
		}
		m.storage = msg.storage
		if m.storage != nil {
			if err := m.storage.Initialize(); err != nil {
				m.logger.Warn("Storage initialization reported a problem", "error", err)
			}
		}
		m.loadingState.SetStep(StepKeystore)
		return m.initializeKeystore()

	case keystoreReadyMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to load stored API key", "error", msg.err)
		}
		m.credentials = msg.credentials
		m.loadingState.SetStep(StepConfig)
		return m.initializeConfig()

	case configReadyMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to load config, using defaults", "error", msg.err)
			m.setStatusMessage("Config could not be read, using defaults", 5*time.Second)
		}
		m.applyConfiguration(msg.config)
		m.loadingState.SetStep(StepClient)
		return func() tea.Msg { return initClientMsg{} }

	case initClientMsg:
		if err := m.initializeClient(); err != nil {
			return func() tea.Msg { return initErrorMsg{err} }
		}
		m.loadingState.SetStep(StepComplete)
		return func() tea.Msg { return initCompleteMsg{} }

	case initCompleteMsg:
		m.loadingState.Complete()
		m.TransitionTo(StatePlayground)
		if !m.store.State().HasAPIKey() {
			m.store.Dispatch(playground.SetShowAuthDialog(true))
		}
		m.logger.Info("Playground ready", "endpoint", m.config.Endpoint)
		return nil

	case initErrorMsg:
		return m.errorHandler.HandleError(msg.error, "Initialization failed")
	}

	return nil
}

// applyConfiguration layers the environment and flag overrides onto the
// loaded config and applies the log level
func (m *Model) applyConfiguration(config *storage.Config) {
	storage.ApplyEnv(config)
	m.applyOverrides(config)

	if err := storage.ValidateConfig(config); err != nil {
		m.logger.Warn("Invalid configuration, falling back to defaults", "error", err)
		m.setStatusMessage(fmt.Sprintf("Invalid config: %v", err), 5*time.Second)

		fallback := storage.DefaultConfig()
		storage.ApplyEnv(fallback)
		m.applyOverrides(fallback)
		config = fallback
	}

	if level, err := log.ParseLevel(config.LogLevel); err == nil {
		m.logger.SetLevel(level)
	}

	m.config = config
}

func (m *Model) applyOverrides(config *storage.Config) {
	if m.opts.Endpoint != "" {
		config.Endpoint = m.opts.Endpoint
	}
	if m.opts.Theme != "" {
		config.Theme = m.opts.Theme
	}
	if m.opts.LogLevel != "" {
		config.LogLevel = m.opts.LogLevel
	}
}

// initializeClient builds the token client, the theme and the playground
// components around a fresh store
func (m *Model) initializeClient() error {
	source := m.opts.Source
	if source == nil {
		client, err := api.NewClient(api.Options{
			BaseURL:      m.config.Endpoint,
			Timeout:      m.config.RequestTimeout.Duration,
			StrictStatus: m.config.StrictStatus,
			Logger:       m.logger,
		})
		if err != nil {
			return NewAppError(ErrorTypeConfig, "Cannot create the token client", err).
				WithDetail("endpoint", m.config.Endpoint).
				WithUserMessage(fmt.Sprintf("The endpoint %q is not usable.", m.config.Endpoint)).
				Retryable()
		}
		source = client
	}
	m.source = source

	m.applyTheme()

	initial := playground.State{}
	if m.credentials != nil && m.credentials.AccessToken != "" {
		initial.APIKey = m.credentials.AccessToken
		initial.KeySavedAt = m.credentials.SavedAt
	}
	m.store = playground.NewStore(initial)
	m.store.Subscribe(m.onStateChange)

	var auditor components.Auditor
	if m.storage != nil {
		auditor = m.storage.AuditLogger
	}

	m.dialog = components.NewAuthDialog(components.AuthDialogOptions{
		Context:         m.ctx,
		Store:           m.store,
		Source:          m.source,
		Styles:          m.styles,
		Logger:          m.logger,
		Auditor:         auditor,
		RegistrationURL: m.config.RegistrationURL,
		PrefillFromKey:  m.config.ShouldPrefillPhone(),
		OnComplete: func(string) {
			m.setStatusMessage("Signed in", 3*time.Second)
		},
		OnError: m.errorHandler.HandleTokenError,
		Width: m.dialogWidth(),
	})
	m.indicator = components.NewStatusIndicator(m.store, m.styles)
	m.helpView = components.NewHelpView(m.keys, m.styles, m.config.Endpoint, m.width, m.height)

	return nil
}

// applyTheme activates the configured theme, loading the override file
// first when one is set
func (m *Model) applyTheme() {
	name := m.config.Theme

	if m.config.ThemeFile != "" {
		path := m.config.ThemeFile
		if !filepath.IsAbs(path) && m.storage != nil {
			path = filepath.Join(m.storage.ConfigDir(), path)
		}
		loaded, err := m.themes.LoadThemeFile(path)
		if err != nil {
			m.logger.Warn("Failed to load theme file", "path", path, "error", err)
			m.setStatusMessage("Theme file ignored: "+err.Error(), 5*time.Second)
		} else {
			name = loaded
		}
	}

	if err := m.themes.SetTheme(name); err != nil {
		m.logger.Warn("Unknown theme, using auto", "theme", name, "error", err)
		_ = m.themes.SetTheme(storage.DefaultTheme)
	}

	theme := m.themes.GetCurrentTheme()
	if pairs := styles.LowContrastPairs(theme, styles.MinContrastRatio); len(pairs) > 0 {
		m.logger.Warn("Theme has low contrast colour pairs", "theme", theme.Name, "pairs", pairs)
	}
	m.styles = styles.NewStyles(theme)
}

// dialogWidth fits the dialog inside the window
func (m *Model) dialogWidth() int {
	const maxWidth = 56
	if m.width <= 0 || m.width-4 > maxWidth {
		return maxWidth
	}
	if m.width-4 < 20 {
		return 20
	}
	return m.width - 4
}
