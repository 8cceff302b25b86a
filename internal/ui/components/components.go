package components

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// blockSize returns the widest line and the line count of a rendered block
func blockSize(s string) (width, height int) {
	lines := strings.Split(s, "\n")
	for _, l := range lines {
		width = max(width, ansi.StringWidth(l))
	}
	return width, len(lines)
}

// PlaceOverlay draws fg on top of bg with its top-left corner at (x, y).
// Both may contain ANSI sequences; cells are measured by display width.
func PlaceOverlay(x, y int, fg, bg string) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")
	fgWidth, _ := blockSize(fg)
	x = max(x, 0)

	for i, line := range fgLines {
		row := y + i
		if row < 0 || row >= len(bgLines) {
			continue
		}
		under := bgLines[row]

		left := ansi.Truncate(under, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}

		if w := ansi.StringWidth(line); w < fgWidth {
			line += strings.Repeat(" ", fgWidth-w)
		}

		right := ""
		if ansi.StringWidth(under) > x+fgWidth {
			right = ansi.TruncateLeft(under, x+fgWidth, "")
		}

		bgLines[row] = left + line + right
	}

	return strings.Join(bgLines, "\n")
}

// CenterOverlay draws fg centred over bg inside a width×height screen.
// bg is padded with blank lines so short screens still hold the overlay.
func CenterOverlay(fg, bg string, width, height int) string {
	fgWidth, fgHeight := blockSize(fg)
	_, bgHeight := blockSize(bg)
	if bgHeight < height {
		bg += strings.Repeat("\n", height-bgHeight)
	}

	x := max((width-fgWidth)/2, 0)
	y := max((height-fgHeight)/2, 0)
	return PlaceOverlay(x, y, fg, bg)
}
