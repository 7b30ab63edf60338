package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{bg.Render("ts3view", styles.Logo)}

	snap := m.snapshot
	switch {
	case !snap.HasTree() && snap.LastError == nil:
		parts = append(parts, bg.Render("Connecting to "+m.source+"...", styles.WarningText.Bold(true)))
		return m.headerBar(strings.Join(parts, sep))
	case !snap.HasTree():
		parts = append(parts,
			bg.Render("UNAVAILABLE", styles.DangerText),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
		)
		if m.logPath != "" && m.width >= LayoutHeaderWideWidth {
			parts = append(parts, bg.Render("log", styles.FaintText)+bg.Space()+bg.Render(m.logPath, styles.MutedText))
		}
		return m.headerBar(strings.Join(parts, sep))
	}

	tree := snap.Tree
	if snap.IsOffline() {
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	} else if snap.LastError != nil {
		parts = append(parts, bg.Render("● STALE", styles.WarningText))
	} else {
		parts = append(parts, bg.Render("● LIVE", styles.SuccessText))
	}

	name := tree.Name
	if m.width < LayoutCompactWidth {
		name = truncate(name, 24)
	}
	parts = append(parts, bg.Render(name, styles.Text.Bold(true)))

	s := tree.Server
	clients := maxInt(s.ClientsOnline-s.QueryClientsOnline, 0)
	parts = append(parts,
		bg.Render("Clients:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d/%d", clients, s.MaxClients), styles.Text),
	)

	if m.width >= LayoutHeaderWideWidth {
		if s.Uptime > 0 {
			parts = append(parts,
				bg.Render("Up:", styles.MutedText)+bg.Space()+
					bg.Render(formatUptime(s.Uptime), styles.Text),
			)
		}
		if s.Version != "" {
			parts = append(parts, bg.Render(truncate(s.Version, 30), styles.FaintText))
		}
	}

	if !snap.LastSuccess.IsZero() {
		parts = append(parts, bg.Render(snap.LastSuccess.Format("15:04:05"), styles.MutedText))
	}
	if m.currentView == ViewLogs {
		parts = append(parts, bg.Render("[log]", styles.AccentText))
	}

	return m.headerBar(strings.Join(parts, sep))
}

func (m Model) headerBar(content string) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(content)
}
