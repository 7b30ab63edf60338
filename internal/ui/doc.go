// Package ui provides the terminal interface for ts3view.
//
// The interactive view is a Bubble Tea program. It never talks to the
// server itself: it reads state.Store snapshots on a tick and draws the
// rendered channel tree in a scrolling viewport, with a header for server
// status and a one-line command bar. A second view shows the tail of the
// application's own log file, which is where render failures are recorded.
//
// RenderPlain writes the same tree as indented, uncolored text. It backs the
// -once flag and output that is not a terminal.
//
// # Key Bindings
//
//   - t / l: Channel tree / error log
//   - j, k, g, G, ctrl+d, ctrl+u: Scroll
//   - /: Find a user or channel by name, n/N to step through matches
//   - i: Toggle channel ids
//   - c: Toggle topics and away messages
//   - e: Errors only (log view)
//   - r: Refresh now
//   - T: Cycle theme
//   - h or ?: Help
//   - q or ctrl+c: Quit
//
// Theme, id and topic toggles are saved to the prefs file as they change.
package ui
