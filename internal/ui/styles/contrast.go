package styles

import (
	"math"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// MinContrastRatio is the WCAG AA ratio for normal text
const MinContrastRatio = 4.5

// ContrastRatio returns the WCAG contrast ratio between two hex colours.
// Colours that are not hex (ANSI indices) report 1.
func ContrastRatio(fg, bg lipgloss.Color) float64 {
	c1, err := colorful.Hex(string(fg))
	if err != nil {
		return 1.0
	}
	c2, err := colorful.Hex(string(bg))
	if err != nil {
		return 1.0
	}

	l1 := relativeLuminance(c1)
	l2 := relativeLuminance(c2)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

func relativeLuminance(c colorful.Color) float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

func linearize(component float64) float64 {
	if component <= 0.04045 {
		return component / 12.92
	}
	return math.Pow((component+0.055)/1.055, 2.4)
}

// LowContrastPairs lists the surface tokens whose foreground falls below
// minRatio against them
func LowContrastPairs(t *Theme, minRatio float64) []string {
	pairs := []struct {
		name string
		pair ColorPair
	}{
		{"primary", t.Colors.Primary},
		{"secondary", t.Colors.Secondary},
		{"destructive", t.Colors.Destructive},
		{"muted", t.Colors.Muted},
		{"accent", t.Colors.Accent},
		{"popover", t.Colors.Popover},
		{"card", t.Colors.Card},
	}

	var low []string
	if ContrastRatio(t.Colors.Foreground, t.Colors.Background) < minRatio {
		low = append(low, "background")
	}
	for _, p := range pairs {
		if ContrastRatio(p.pair.Foreground, p.pair.Default) < minRatio {
			low = append(low, p.name)
		}
	}
	return low
}
