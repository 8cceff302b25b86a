package styles

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Styles holds every lipgloss style the playground renders with, derived
// from a single theme
type Styles struct {
	Theme *Theme

	App    lipgloss.Style
	Header lipgloss.Style
	Muted  lipgloss.Style
	Footer lipgloss.Style

	// Auth dialog
	Dialog            lipgloss.Style
	DialogTitle       lipgloss.Style
	DialogDescription lipgloss.Style
	FieldError        lipgloss.Style
	Link              lipgloss.Style
	Spinner           lipgloss.Style

	// Not-found banner
	Banner      lipgloss.Style
	BannerTitle lipgloss.Style

	// Status indicator
	Indicator   lipgloss.Style
	KeyPreview  lipgloss.Style
	Badge       lipgloss.Style
	ClearButton lipgloss.Style
	Notice      lipgloss.Style

	// Overlays
	HelpBox  lipgloss.Style
	ErrorBox lipgloss.Style
}

// NewStyles builds the style set for a theme
func NewStyles(t *Theme) *Styles {
	c := t.Colors
	s := &Styles{Theme: t}

	s.App = lipgloss.NewStyle().
		Foreground(c.Foreground).
		Padding(1, 2)

	s.Header = lipgloss.NewStyle().
		Foreground(c.Primary.Default).
		Bold(true)

	s.Muted = lipgloss.NewStyle().
		Foreground(c.Muted.Foreground)

	s.Footer = lipgloss.NewStyle().
		Foreground(c.Muted.Foreground).
		MarginTop(1)

	s.Dialog = lipgloss.NewStyle().
		Border(t.Border(RadiusLG)).
		BorderForeground(c.Border).
		Foreground(c.Popover.Foreground).
		Padding(1, 3).
		Width(56)

	s.DialogTitle = lipgloss.NewStyle().
		Foreground(c.Popover.Foreground).
		Bold(true).
		MarginBottom(1)

	s.DialogDescription = lipgloss.NewStyle().
		Foreground(c.Muted.Foreground).
		MarginBottom(1)

	s.FieldError = lipgloss.NewStyle().
		Foreground(c.Destructive.Default)

	s.Link = lipgloss.NewStyle().
		Foreground(c.Primary.Default).
		Underline(true)

	s.Spinner = lipgloss.NewStyle().
		Foreground(c.Ring)

	s.Banner = lipgloss.NewStyle().
		Border(t.Border(RadiusMD)).
		BorderForeground(c.Destructive.Default).
		Padding(0, 1).
		MarginBottom(1)

	s.BannerTitle = lipgloss.NewStyle().
		Foreground(c.Destructive.Default).
		Bold(true)

	s.Indicator = lipgloss.NewStyle().
		Border(t.Border(RadiusSM)).
		BorderForeground(c.Border).
		Padding(0, 1)

	s.KeyPreview = lipgloss.NewStyle().
		Foreground(c.Card.Foreground).
		Bold(true)

	s.Badge = lipgloss.NewStyle().
		Foreground(c.Secondary.Foreground).
		Background(c.Secondary.Default).
		Padding(0, 1)

	s.ClearButton = lipgloss.NewStyle().
		Foreground(c.Destructive.Foreground).
		Background(c.Destructive.Default).
		Padding(0, 1)

	s.Notice = lipgloss.NewStyle().
		Foreground(c.Accent.Foreground).
		Italic(true)

	s.HelpBox = lipgloss.NewStyle().
		Border(t.Border(RadiusLG)).
		BorderForeground(c.Ring).
		Padding(0, 1)

	s.ErrorBox = lipgloss.NewStyle().
		Border(t.Border(RadiusLG)).
		BorderForeground(c.Destructive.Default).
		Foreground(c.Foreground).
		Padding(1, 2)

	return s
}

// FadedBanner returns the banner styles with the destructive colour faded to
// opacity over the background
func (s *Styles) FadedBanner(opacity float64) (box, title lipgloss.Style) {
	c := s.Theme.Colors
	faded := Fade(c.Destructive.Default, c.Background, opacity)
	return s.Banner.BorderForeground(faded), s.BannerTitle.Foreground(faded)
}

// FormTheme maps the theme tokens onto a huh form theme
func (s *Styles) FormTheme() *huh.Theme {
	c := s.Theme.Colors
	ht := huh.ThemeBase()

	ht.Focused.Base = ht.Focused.Base.BorderForeground(c.Ring)
	ht.Focused.Title = ht.Focused.Title.Foreground(c.Foreground).Bold(true)
	ht.Focused.Description = ht.Focused.Description.Foreground(c.Muted.Foreground)
	ht.Focused.ErrorIndicator = ht.Focused.ErrorIndicator.Foreground(c.Destructive.Default)
	ht.Focused.ErrorMessage = ht.Focused.ErrorMessage.Foreground(c.Destructive.Default)
	ht.Focused.TextInput.Cursor = ht.Focused.TextInput.Cursor.Foreground(c.Ring)
	ht.Focused.TextInput.Placeholder = ht.Focused.TextInput.Placeholder.Foreground(c.Muted.Foreground)
	ht.Focused.TextInput.Prompt = ht.Focused.TextInput.Prompt.Foreground(c.Primary.Default)
	ht.Focused.TextInput.Text = ht.Focused.TextInput.Text.Foreground(c.Foreground)

	ht.Blurred = ht.Focused
	ht.Blurred.Base = ht.Blurred.Base.BorderForeground(c.Input)

	return ht
}
