package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/five82/ts3view/internal/logtail"
	"github.com/five82/ts3view/internal/viewer"
)

// updateTreeViewport rebuilds the tree lines from the snapshot and
// refreshes the search matches.
func (m *Model) updateTreeViewport() {
	if !m.ready {
		return
	}
	opts := lineOptions{ShowIDs: m.prefs.ShowIDs, Compact: m.prefs.Compact || m.width < LayoutCompactWidth}
	m.lines = flattenTree(m.snapshot.Tree, opts)

	m.matches = nil
	for i, line := range m.lines {
		if line.matches(m.searchQuery) {
			m.matches = append(m.matches, i)
		}
	}
	if m.matchIdx >= len(m.matches) {
		m.matchIdx = 0
	}

	if len(m.lines) == 0 {
		m.treeViewport.SetContent(m.renderEmptyTree())
		return
	}

	current := -1
	if len(m.matches) > 0 {
		current = m.matches[m.matchIdx]
	}
	styles := m.theme.Styles()
	rendered := make([]string, len(m.lines))
	for i, line := range m.lines {
		rendered[i] = m.renderTreeLine(line, opts, styles, i == current)
	}
	m.treeViewport.SetContent(strings.Join(rendered, "\n"))
}

func (m Model) renderEmptyTree() string {
	styles := m.theme.Styles()
	msg := "Waiting for the first status..."
	style := styles.WarningText
	if m.snapshot.Fallback != "" {
		msg = m.snapshot.Fallback
		style = styles.DangerText
	}
	return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center, style.Render(msg))
}

func (m Model) renderTreeLine(line treeLine, opts lineOptions, styles Styles, current bool) string {
	prefix := indent(line.depth)
	g := styles.IconStyle(line.icon).Render(glyph(line.icon))
	avail := m.width - runewidth.StringWidth(prefix) - 2
	if avail < 1 {
		avail = 1
	}

	name := line.name
	if line.kind == lineChannel && opts.ShowIDs {
		name += " #" + strconv.Itoa(line.id)
	}
	if line.centered {
		name = center(strings.TrimSpace(name), avail)
	}
	name = truncate(name, avail)
	used := runewidth.StringWidth(name)

	nameStyle := styles.Text
	switch {
	case line.kind == lineServer:
		nameStyle = styles.AccentText.Bold(true)
	case line.kind == lineChannel:
		nameStyle = styles.Text.Bold(true)
	case line.icon == viewer.IconAway:
		nameStyle = styles.MutedText
	}
	if line.matches(m.searchQuery) {
		nameStyle = styles.Match
		if current {
			nameStyle = nameStyle.Bold(true).Underline(true)
		}
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(g)
	b.WriteString(" ")
	b.WriteString(nameStyle.Render(name))

	if len(line.flags) > 0 && used < avail {
		flags := truncate(" ["+strings.Join(line.flags, " ")+"]", avail-used)
		used += runewidth.StringWidth(flags)
		b.WriteString(styles.FaintText.Render(flags))
	}
	if line.detail != "" && used < avail {
		detail := truncate(" - "+line.detail, avail-used)
		b.WriteString(styles.MutedText.Render(detail))
	}
	if line.kind == lineServer && m.snapshot.Tree != nil && used < avail {
		b.WriteString(styles.FaintText.Render(truncate("  "+serverSummary(m.snapshot.Tree), avail-used)))
	}
	return b.String()
}

// handleLogsKey processes keys that only apply to the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ToggleErrors) {
		m.logErrorsOnly = !m.logErrorsOnly
		m.updateLogViewport()
		return m, nil
	}
	m.logViewport = scroll(m.logViewport, msg, m.keys)
	return m, nil
}

func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	styles := m.theme.Styles()
	entries := m.logEntries
	if m.logErrorsOnly {
		entries = logtail.ErrorsOnly(entries)
	}
	if len(entries) == 0 {
		msg := "No log records yet."
		if m.logPath == "" {
			msg = "Logging is disabled."
		}
		m.logViewport.SetContent(styles.MutedText.Render(msg))
		return
	}

	rendered := make([]string, 0, len(entries))
	for _, e := range entries {
		rendered = append(rendered, renderLogEntry(e, styles, m.width))
	}
	m.logViewport.SetContent(strings.Join(rendered, "\n"))
	m.logViewport.GotoBottom()
}

func renderLogEntry(e logtail.Entry, styles Styles, width int) string {
	text := truncate(e.Format(), width)
	switch e.Level {
	case "ERROR":
		return styles.DangerText.Render(text)
	case "WARN":
		return styles.WarningText.Render(text)
	case "DEBUG":
		return styles.FaintText.Render(text)
	default:
		return styles.Text.Render(text)
	}
}
