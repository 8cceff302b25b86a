package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/john/playauth/internal/ui/styles"
	"github.com/stretchr/testify/assert"
)

func TestPlaceOverlay(t *testing.T) {
	bg := strings.Join([]string{
		"..........",
		"..........",
		"..........",
	}, "\n")

	got := PlaceOverlay(3, 1, "ab\nc", bg)

	assert.Equal(t, strings.Join([]string{
		"..........",
		"...ab.....",
		"...c .....",
	}, "\n"), got)
}

func TestPlaceOverlayClipsAndPads(t *testing.T) {
	got := PlaceOverlay(4, 1, "xyz\nabc", "..\n..")

	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "..", lines[0])
	assert.Equal(t, "..  xyz", lines[1])
}

func TestPlaceOverlayWithStyledBackground(t *testing.T) {
	bg := lipgloss.NewStyle().Bold(true).Render("0123456789")

	got := PlaceOverlay(2, 0, "AB", bg)

	assert.Equal(t, "01AB456789", ansi.Strip(got))
}

func TestCenterOverlay(t *testing.T) {
	got := CenterOverlay("XX", "", 6, 3)

	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "  XX", lines[1])
}

func TestHelpViewMarkdown(t *testing.T) {
	hv := NewHelpView(DefaultKeyMap(), styles.NewStyles(styles.Dark.Clone()), "http://localhost:5000", 80, 24)

	md := hv.Markdown()
	assert.Contains(t, md, "`ctrl+c` | quit")
	assert.Contains(t, md, "`x` | clear key")
	assert.Contains(t, md, "http://localhost:5000")
	assert.NotEmpty(t, hv.View())
}

func TestKeyMapHelp(t *testing.T) {
	km := DefaultKeyMap()
	assert.Len(t, km.ShortHelp(), 5)

	total := 0
	for _, group := range km.FullHelp() {
		total += len(group)
	}
	assert.Equal(t, 7, total)
}
