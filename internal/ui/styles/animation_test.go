package styles

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestBlinkOpacity(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 1},
		{125 * time.Millisecond, 0.5},
		{250 * time.Millisecond, 0},
		{375 * time.Millisecond, 0.5},
		{500 * time.Millisecond, 1},
		{750 * time.Millisecond, 0},
		{time.Second, 1},
	}

	for _, tt := range tests {
		got, ok := Light.Opacity(BlinkAnimation, tt.elapsed)
		assert.True(t, ok)
		assert.InDelta(t, tt.want, got, 1e-9, "elapsed %v", tt.elapsed)
	}
}

func TestBlinkOpacityIsEased(t *testing.T) {
	// A quarter of the way into the fade-out segment ease-in-out lags linear
	got, _ := Light.Opacity(BlinkAnimation, 62500*time.Microsecond)
	assert.InDelta(t, 0.875, got, 1e-9)
}

func TestOpacityUnknownAnimation(t *testing.T) {
	got, ok := Light.Opacity("wiggle", time.Second)
	assert.False(t, ok)
	assert.Equal(t, 1.0, got)
}

func TestEaseInOut(t *testing.T) {
	assert.Equal(t, 0.0, EaseInOut(0))
	assert.Equal(t, 0.5, EaseInOut(0.5))
	assert.Equal(t, 1.0, EaseInOut(1))
	assert.Less(t, EaseInOut(0.25), 0.25)
	assert.Greater(t, EaseInOut(0.75), 0.75)
}

func TestFade(t *testing.T) {
	fg := lipgloss.Color("#FF0000")
	bg := lipgloss.Color("#000000")

	assert.Equal(t, lipgloss.Color("#ff0000"), Fade(fg, bg, 1))
	assert.Equal(t, lipgloss.Color("#000000"), Fade(fg, bg, 0))
	assert.Equal(t, lipgloss.Color("#000000"), Fade(fg, bg, -3))

	// ANSI colours step instead of blending
	assert.Equal(t, lipgloss.Color("1"), Fade("1", "0", 0.7))
	assert.Equal(t, lipgloss.Color("0"), Fade("1", "0", 0.2))
}

func TestContrastRatio(t *testing.T) {
	assert.InDelta(t, 21.0, ContrastRatio("#FFFFFF", "#000000"), 0.01)
	assert.InDelta(t, 1.0, ContrastRatio("#777777", "#777777"), 0.01)
	assert.Equal(t, 1.0, ContrastRatio("7", "#000000"))
}

func TestLowContrastPairs(t *testing.T) {
	theme := Dark.Clone()
	assert.NotContains(t, LowContrastPairs(theme, MinContrastRatio), "popover")

	theme.Colors.Popover.Foreground = theme.Colors.Popover.Default
	assert.Contains(t, LowContrastPairs(theme, MinContrastRatio), "popover")
}

func TestFadedBanner(t *testing.T) {
	s := NewStyles(Light.Clone())

	_, solid := s.FadedBanner(1)
	assert.Equal(t, lipgloss.Color("#ef4444"), solid.GetForeground())

	_, hidden := s.FadedBanner(0)
	assert.Equal(t, lipgloss.Color("#ffffff"), hidden.GetForeground())
}
