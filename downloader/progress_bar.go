package downloader

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultBarLength = 10

	filledGlyph = "▓"
	emptyGlyph  = "░"
)

// BarSegments returns the filled and empty segment counts for a bar
func BarSegments(percentage float64, length int) (filled, empty int) {
	if length <= 0 {
		return 0, 0
	}
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	filled = int(math.Floor(percentage * float64(length) / 100))
	if filled > length {
		filled = length
	}
	return filled, length - filled
}

// RenderProgressBar renders a fixed-width glyph bar followed by the percentage
func RenderProgressBar(percentage float64, length int) string {
	filled, empty := BarSegments(percentage, length)
	return strings.Repeat(filledGlyph, filled) + strings.Repeat(emptyGlyph, empty) +
		fmt.Sprintf(" %.1f%%", percentage)
}
