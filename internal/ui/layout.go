package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which topics and away
	// messages are dropped from tree lines.
	LayoutCompactWidth = 80

	// LayoutHeaderWideWidth is the minimum width for the full header.
	LayoutHeaderWideWidth = 110
)

// Log view limits.
const (
	// LogTailLines is the number of log lines loaded into the log view.
	LogTailLines = 400
)

// Timing constants.
const (
	// DefaultUIInterval is the default snapshot refresh interval.
	DefaultUIInterval = time.Second
)
