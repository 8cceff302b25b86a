package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/john/playauth/internal/api"
	"github.com/john/playauth/internal/auth"
	"github.com/john/playauth/internal/playground"
	"github.com/john/playauth/internal/storage"
	"github.com/john/playauth/internal/ui/components"
	"github.com/john/playauth/internal/ui/styles"
)

// Options configures a Model. Zero values fall back to the config file.
type Options struct {
	// ConfigDir overrides the playauth home directory
	ConfigDir string

	// Flag overrides, applied after config.json and the environment
	Endpoint string
	Theme    string
	LogLevel string

	Logger *log.Logger
	// Source replaces the HTTP token client
	Source api.TokenSource
	Themes *styles.ThemeManager
}

// Model represents the main application state
type Model struct {
	// Core application state
	stateManager *StateManager
	errorHandler *ErrorHandler
	opts         Options

	// Window dimensions and layout
	width  int
	height int
	ready  bool

	// Dependencies
	storage     *storage.Storage
	config      *storage.Config
	credentials *storage.Credentials
	source      api.TokenSource
	logger      *log.Logger
	ctx         context.Context
	cancelFunc  context.CancelFunc

	// Playground
	store     *playground.Store
	themes    *styles.ThemeManager
	styles    *styles.Styles
	keys      components.KeyMap
	help      help.Model
	dialog    *components.AuthDialog
	indicator *components.StatusIndicator
	helpView  *components.HelpView

	// State-specific data
	loadingState *LoadingState
	errorState   *ErrorState

	// UI state
	statusMessage string
	statusTimeout time.Time

	// pending collects commands produced by store listeners during Update
	pending []tea.Cmd
	now     func() time.Time
}

// New creates a new application model
func New(opts Options) *Model {
	ctx, cancel := context.WithCancel(context.Background())

	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr)
		logger.SetLevel(log.InfoLevel)
	}

	themes := opts.Themes
	if themes == nil {
		themes = styles.NewTerminalThemeManager()
	}

	m := &Model{
		stateManager: NewStateManager(),
		opts:         opts,
		ctx:          ctx,
		cancelFunc:   cancel,
		logger:       logger,
		themes:       themes,
		styles:       styles.NewStyles(themes.GetCurrentTheme()),
		keys:         components.DefaultKeyMap(),
		help:         help.New(),
		loadingState: NewLoadingState("Starting playauth..."),
		now:          time.Now,
	}
	m.errorHandler = NewErrorHandler(m)

	return m
}

// GetCurrentState returns the current application state
func (m *Model) GetCurrentState() AppState {
	return m.stateManager.Current()
}

// Store returns the shared playground store, nil until initialization
// has finished
func (m *Model) Store() *playground.Store {
	return m.store
}

// TransitionTo transitions to a new state
func (m *Model) TransitionTo(newState AppState) bool {
	if m.stateManager.Transition(newState) {
		m.onStateTransition(m.stateManager.Previous(), newState)
		return true
	}
	return false
}

// goBack returns to the previous screen
func (m *Model) goBack() bool {
	from := m.stateManager.Current()
	if !m.stateManager.Back() {
		return false
	}
	m.onStateTransition(from, m.stateManager.Current())
	return true
}

// onStateTransition handles state transition logic
func (m *Model) onStateTransition(from, to AppState) {
	m.logger.Debug("State transition", "from", from.String(), "to", to.String())

	switch to {
	case StateHelp:
		if m.helpView != nil {
			m.helpView.Resize(m.width, m.height)
		}
	case StateInitializing:
		m.loadingState = NewLoadingState("Restarting playauth...")
		m.errorState = nil
	case StateShutdown:
		m.cleanup()
	}
}

// cleanup performs cleanup operations
func (m *Model) cleanup() {
	if m.dialog != nil && m.dialog.IsOpen() {
		m.store.Dispatch(playground.SetShowAuthDialog(false))
	}

	if m.storage != nil {
		if err := m.storage.Shutdown(); err != nil {
			m.logger.Error("Error during storage shutdown", "error", err)
		}
	}

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
}

// setStatusMessage sets a temporary status message
func (m *Model) setStatusMessage(message string, duration time.Duration) {
	m.statusMessage = message
	m.statusTimeout = m.now().Add(duration)
}

// clearStatusMessage clears the status message
func (m *Model) clearStatusMessage() {
	m.statusMessage = ""
	m.statusTimeout = time.Time{}
}

// hasActiveStatusMessage checks if there's an active status message
func (m *Model) hasActiveStatusMessage() bool {
	return m.statusMessage != "" && m.now().Before(m.statusTimeout)
}

// setError records an error and switches to the error screen
func (m *Model) setError(err *AppError, context string) {
	m.errorState = NewErrorState(err, context, m.GetCurrentState())
	if m.loadingState != nil {
		m.loadingState.Fail(err)
	}
	m.TransitionTo(StateError)
}

// onStateChange persists the key and audits clears. It runs inside
// Update, so the resulting commands are queued rather than returned.
func (m *Model) onStateChange(prev, next playground.State, action playground.Action) {
	if action.Type != playground.ActionSetAPIKey || prev.APIKey == next.APIKey {
		return
	}

	if next.HasAPIKey() {
		m.logger.Info("API key set", "key", auth.Mask(next.APIKey))
	} else {
		m.logger.Info("API key cleared")
	}

	m.pending = append(m.pending, m.persistKey(next))
}

// persistKey writes or removes the stored credentials
func (m *Model) persistKey(state playground.State) tea.Cmd {
	st := m.storage
	persist := m.config != nil && m.config.ShouldPersistKey()

	return func() tea.Msg {
		if st == nil {
			return keyPersistedMsg{}
		}

		if !state.HasAPIKey() {
			if err := st.AuditLogger.Record(storage.OutcomeCleared, "", 0, nil); err != nil {
				return keyPersistedMsg{err: fmt.Errorf("audit: %w", err)}
			}
			return keyPersistedMsg{err: st.KeyStore.Clear()}
		}

		if !persist {
			return keyPersistedMsg{}
		}
		return keyPersistedMsg{saved: true, err: st.KeyStore.Save(state.APIKey, state.KeySavedAt)}
	}
}

// flushPending returns and clears the queued listener commands
func (m *Model) flushPending() tea.Cmd {
	if len(m.pending) == 0 {
		return nil
	}
	cmds := m.pending
	m.pending = nil
	return tea.Batch(cmds...)
}

// Init initializes the model and starts the initialization sequence
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return initStartMsg{} },
		tickEvery(),
	)
}

// tickMsg drives status message expiry
type tickMsg struct {
	time time.Time
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{t}
	})
}

func statusCmd(message string, duration time.Duration) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{message, duration}
	}
}
