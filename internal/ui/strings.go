package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// truncate shortens a string to the given display width, adding an ellipsis
// if needed. Wide runes count as two cells.
func truncate(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= limit {
		return value
	}
	if limit <= 1 {
		return runewidth.Truncate(value, limit, "")
	}
	return runewidth.Truncate(value, limit, "…")
}

// center pads s on both sides to width display cells.
func center(s string, width int) string {
	w := runewidth.StringWidth(s)
	if width <= w {
		return s
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-w-left)
}

// formatUptime renders a duration in a short "3d 4h" style.
func formatUptime(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// maxInt returns the larger of two integers.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
