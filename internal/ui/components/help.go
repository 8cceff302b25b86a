package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/john/playauth/internal/ui/styles"
)

// HelpView renders the markdown help overlay in a scrollable viewport
type HelpView struct {
	keys     KeyMap
	styles   *styles.Styles
	endpoint string
	viewport viewport.Model
	width    int
	height   int
}

// NewHelpView creates the help overlay
func NewHelpView(keys KeyMap, st *styles.Styles, endpoint string, width, height int) *HelpView {
	hv := &HelpView{
		keys:     keys,
		styles:   st,
		endpoint: endpoint,
	}
	hv.Resize(width, height)
	return hv
}

// Markdown returns the help document source
func (hv *HelpView) Markdown() string {
	var b strings.Builder
	b.WriteString("# Playground sign-in\n\n")
	b.WriteString("The playground needs an API key. Sign in with the phone number ")
	b.WriteString("registered with your account and a key is fetched from the identity service.\n\n")
	fmt.Fprintf(&b, "Identity service: `%s`\n\n", hv.endpoint)

	b.WriteString("## Keys\n\n")
	b.WriteString("| Key | Action |\n|---|---|\n")
	for _, group := range hv.keys.FullHelp() {
		for _, binding := range group {
			writeBindingRow(&b, binding)
		}
	}

	b.WriteString("\n## Troubleshooting\n\n")
	b.WriteString("- **This phone number is not registered**: check the number or register first.\n")
	b.WriteString("- **Failed to fetch API key**: the service could not be reached. Try again.\n")
	b.WriteString("- Run `playauth mock-server` to try the flow against a local fixture.\n")
	return b.String()
}

func writeBindingRow(b *strings.Builder, binding key.Binding) {
	h := binding.Help()
	fmt.Fprintf(b, "| `%s` | %s |\n", h.Key, h.Desc)
}

// Resize re-renders the document for a new terminal size
func (hv *HelpView) Resize(width, height int) {
	hv.width = width
	hv.height = height

	innerWidth := max(width-6, 20)
	innerHeight := max(height-6, 5)
	hv.viewport = viewport.New(innerWidth, innerHeight)
	hv.viewport.SetContent(hv.render(innerWidth))
}

func (hv *HelpView) render(width int) string {
	style := "light"
	if hv.styles.Theme.IsDark {
		style = "dark"
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return hv.Markdown()
	}

	rendered, err := renderer.Render(hv.Markdown())
	if err != nil {
		return hv.Markdown()
	}
	return strings.TrimSpace(rendered)
}

// SetStyles applies a new style set
func (hv *HelpView) SetStyles(st *styles.Styles) {
	hv.styles = st
	hv.Resize(hv.width, hv.height)
}

// Update scrolls the viewport
func (hv *HelpView) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	hv.viewport, cmd = hv.viewport.Update(msg)
	return cmd
}

// View renders the overlay
func (hv *HelpView) View() string {
	return hv.styles.HelpBox.Render(hv.viewport.View())
}
