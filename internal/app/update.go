package app

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/john/playauth/internal/playground"
	"github.com/john/playauth/internal/ui/components"
)

// Custom message types for the application
type (
	// keyPersistedMsg reports a keystore write or removal
	keyPersistedMsg struct {
		saved bool
		err   error
	}

	// Status messages
	statusMsg struct {
		message  string
		duration time.Duration
	}
	clearStatusMsg struct{}
)

// Update handles all messages and updates the model state
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		if m.statusMessage != "" && !m.hasActiveStatusMessage() {
			m.clearStatusMessage()
		}
		if m.GetCurrentState() != StateShutdown {
			cmds = append(cmds, tickEvery())
		}

	case clearStatusMsg:
		m.clearStatusMessage()

	case statusMsg:
		m.setStatusMessage(msg.message, msg.duration)

	case keyPersistedMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to update stored API key", "error", msg.err)
			m.setStatusMessage("Could not update the saved API key", 5*time.Second)
		} else if msg.saved {
			m.logger.Debug("API key saved to keystore")
		}

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeys(msg))
		cmds = append(cmds, m.flushPending())
		return m, tea.Batch(cmds...)

	case components.TokenResultMsg, components.BlinkFrameMsg, spinner.TickMsg:
		if m.dialog != nil {
			cmds = append(cmds, m.dialog.Update(msg))
		}

	case components.CopyResultMsg:
		if m.indicator != nil {
			cmds = append(cmds, m.indicator.Update(msg))
		}

	default:
		// Form internals such as cursor blinks
		if m.dialog != nil && m.dialog.IsOpen() {
			cmds = append(cmds, m.dialog.Update(msg))
		}
	}

	cmds = append(cmds, m.handleInitializationMessages(msg))
	cmds = append(cmds, m.flushPending())

	return m, tea.Batch(cmds...)
}

// resize records the window size and lays the components out again
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true
	m.help.Width = width

	if m.dialog != nil {
		m.dialog.SetWidth(m.dialogWidth())
	}
	if m.helpView != nil {
		m.helpView.Resize(width, height)
	}
}

// handleKeys routes a key press by screen state
func (m *Model) handleKeys(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}

	switch m.GetCurrentState() {
	case StatePlayground:
		return m.handlePlaygroundKeys(msg)
	case StateHelp:
		return m.handleHelpKeys(msg)
	case StateError:
		return m.handleErrorKeys(msg)
	}
	return nil
}

// handlePlaygroundKeys sends keys to the dialog while it is open
func (m *Model) handlePlaygroundKeys(msg tea.KeyMsg) tea.Cmd {
	if m.dialog.IsOpen() {
		return m.dialog.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.TransitionTo(StateHelp)
	case key.Matches(msg, m.keys.Clear):
		if m.store.State().HasAPIKey() {
			m.indicator.Clear()
			m.setStatusMessage("API key cleared", 3*time.Second)
		}
	case key.Matches(msg, m.keys.Copy):
		return m.indicator.Copy()
	case key.Matches(msg, m.keys.SignIn):
		m.store.Dispatch(playground.SetShowAuthDialog(true))
	}
	return nil
}

func (m *Model) handleHelpKeys(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Help, m.keys.Close) || msg.String() == "q" {
		if !m.goBack() {
			m.TransitionTo(StatePlayground)
		}
		return nil
	}
	return m.helpView.Update(msg)
}

func (m *Model) handleErrorKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "r":
		if m.errorState != nil && !m.errorState.CanRetry() {
			return nil
		}
		return m.retry()
	case "q", "esc":
		return m.quit()
	}
	return nil
}

// retry re-runs initialization from the error screen
func (m *Model) retry() tea.Cmd {
	if !m.TransitionTo(StateInitializing) {
		return nil
	}
	return func() tea.Msg { return initStartMsg{} }
}

func (m *Model) quit() tea.Cmd {
	m.TransitionTo(StateShutdown)
	return tea.Quit
}
