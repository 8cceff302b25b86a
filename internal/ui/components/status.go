package components

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/john/playauth/internal/auth"
	"github.com/john/playauth/internal/playground"
	"github.com/john/playauth/internal/ui/styles"
)

// CopyResultMsg reports the outcome of copying the key to the clipboard
type CopyResultMsg struct {
	Err error
}

// StatusIndicator shows a masked preview of the stored API key with clear
// and copy controls. It renders nothing while no key is set.
type StatusIndicator struct {
	store  *playground.Store
	styles *styles.Styles

	writeClipboard func(string) error
	now            func() time.Time

	notice string
}

// NewStatusIndicator creates an indicator reading from store
func NewStatusIndicator(store *playground.Store, st *styles.Styles) *StatusIndicator {
	return &StatusIndicator{
		store:          store,
		styles:         st,
		writeClipboard: clipboard.WriteAll,
		now:            time.Now,
	}
}

// SetStyles applies a new style set
func (si *StatusIndicator) SetStyles(st *styles.Styles) {
	si.styles = st
}

// Notice returns the last copy feedback message
func (si *StatusIndicator) Notice() string {
	return si.notice
}

// Clear wipes the key and asks for the auth dialog
func (si *StatusIndicator) Clear() {
	if !si.store.State().HasAPIKey() {
		return
	}
	si.notice = ""
	si.store.Dispatch(playground.ClearAPIKey())
	si.store.Dispatch(playground.SetShowAuthDialog(true))
}

// Copy puts the full key on the system clipboard
func (si *StatusIndicator) Copy() tea.Cmd {
	key := si.store.State().APIKey
	if key == "" {
		return nil
	}
	write := si.writeClipboard
	return func() tea.Msg {
		return CopyResultMsg{Err: write(key)}
	}
}

// Update handles clipboard results
func (si *StatusIndicator) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(CopyResultMsg); ok {
		if msg.Err != nil {
			si.notice = "Clipboard unavailable: " + msg.Err.Error()
		} else {
			si.notice = "API key copied to clipboard"
		}
	}
	return nil
}

// View renders the indicator
func (si *StatusIndicator) View() string {
	state := si.store.State()
	if !state.HasAPIKey() {
		return ""
	}
	st := si.styles

	parts := []string{
		st.Muted.Render("API key"),
		st.KeyPreview.Render(auth.Mask(state.APIKey)),
	}
	if !state.KeySavedAt.IsZero() {
		parts = append(parts, st.Muted.Render("obtained "+humanize.RelTime(state.KeySavedAt, si.now(), "ago", "from now")))
	}
	line := strings.Join(parts, " ")

	controls := lipgloss.JoinHorizontal(lipgloss.Center,
		st.ClearButton.Render("x clear"),
		" ",
		st.Badge.Render("y copy"),
	)

	content := lipgloss.JoinHorizontal(lipgloss.Center, line, "  ", controls)
	if si.notice != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, st.Notice.Render(si.notice))
	}
	return st.Indicator.Render(content)
}
