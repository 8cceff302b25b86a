package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/john/playauth/internal/ui/components"
)

// View renders the current view based on the application state
func (m *Model) View() string {
	if !m.ready {
		return m.styles.Muted.Render("Starting playauth...")
	}

	switch m.GetCurrentState() {
	case StateInitializing:
		return m.renderInitializingView()
	case StatePlayground:
		return m.renderPlaygroundView()
	case StateHelp:
		return m.renderHelpView()
	case StateError:
		return m.renderErrorView()
	default:
		return ""
	}
}

// renderInitializingView renders the initialization view
func (m *Model) renderInitializingView() string {
	st := m.styles
	if m.loadingState == nil {
		return m.centerContent(st.Muted.Render("Starting..."))
	}

	header := st.Header.Render("playauth") + "\n" +
		st.Muted.Render("Playground sign-in") + "\n"

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		header,
		m.renderProgressBar(m.loadingState.Progress, 40),
		"",
		m.loadingState.Message,
		st.Muted.Render(fmt.Sprintf("Elapsed: %s", formatElapsed(m.loadingState.Elapsed(m.now())))),
	)

	return m.centerContent(content)
}

// renderPlaygroundView renders the playground with the dialog on top when open
func (m *Model) renderPlaygroundView() string {
	st := m.styles

	var b strings.Builder
	b.WriteString(st.Header.Render("playauth playground"))
	b.WriteString("\n")
	b.WriteString(st.Muted.Render(m.truncate("Identity service: " + m.config.Endpoint)))
	b.WriteString("\n\n")

	if indicator := m.indicator.View(); indicator != "" {
		b.WriteString(indicator)
	} else {
		b.WriteString(st.Muted.Render("Not signed in. Press a to sign in."))
	}
	b.WriteString("\n")

	if m.hasActiveStatusMessage() {
		b.WriteString("\n")
		b.WriteString(st.Notice.Render(m.truncate(m.statusMessage)))
		b.WriteString("\n")
	}

	b.WriteString(st.Footer.Render(m.help.View(m.keys)))

	background := st.App.Render(b.String())
	if !m.dialog.IsOpen() {
		return background
	}
	return components.CenterOverlay(m.dialog.View(), background, m.width, m.height)
}

// renderHelpView renders the help overlay
func (m *Model) renderHelpView() string {
	return m.centerContent(m.helpView.View())
}

// renderErrorView renders the error view
func (m *Model) renderErrorView() string {
	st := m.styles
	if m.errorState == nil || m.errorState.Error == nil {
		return st.ErrorBox.Render("Unknown error occurred")
	}

	appErr := m.errorState.Error
	lines := []string{
		st.BannerTitle.Render(m.errorState.Title),
		"",
		appErr.DisplayMessage(),
	}
	if appErr.Cause != nil {
		lines = append(lines, st.Muted.Render(m.truncate(appErr.Cause.Error())))
	}

	var actions []string
	if m.errorState.CanRetry() {
		actions = append(actions, "r retry")
	}
	actions = append(actions, "q quit")
	lines = append(lines, "", st.Muted.Render(strings.Join(actions, " • ")))

	return m.centerContent(st.ErrorBox.Render(strings.Join(lines, "\n")))
}

// renderProgressBar renders a progress bar
func (m *Model) renderProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	filled := int(progress * float64(width))
	empty := width - filled

	bar := m.styles.Header.Render(strings.Repeat("█", filled)) +
		m.styles.Muted.Render(strings.Repeat("░", empty))

	return fmt.Sprintf("%s %s", bar, m.styles.Muted.Render(fmt.Sprintf("%.0f%%", progress*100)))
}

// centerContent centers content on the screen
func (m *Model) centerContent(content string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// truncate keeps a line within the window
func (m *Model) truncate(s string) string {
	if m.width <= 8 {
		return s
	}
	return ansi.Truncate(s, m.width-4, "…")
}

func formatElapsed(elapsed time.Duration) string {
	if elapsed < time.Second {
		return fmt.Sprintf("%.0fms", float64(elapsed.Nanoseconds())/1e6)
	}
	return fmt.Sprintf("%.1fs", elapsed.Seconds())
}
