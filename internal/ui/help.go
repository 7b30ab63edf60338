package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var helpSectionTitles = []string{"Views", "Navigation", "Tree", "Logs", "General"}

// renderHelp renders the help overlay from the key map.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	groups := m.keys.FullHelp()
	for i, group := range groups {
		if i < len(helpSectionTitles) {
			b.WriteString(styles.AccentText.Bold(true).Render(helpSectionTitles[i]))
			b.WriteString("\n")
		}
		for _, binding := range group {
			b.WriteString(helpRow(binding, m.theme, styles))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(styles.AccentText.Bold(true).Render("Themes"))
	for _, name := range ThemeNames() {
		b.WriteString("\n")
		if name == m.theme.Name {
			b.WriteString(styles.SuccessText.Render("● " + name))
			continue
		}
		b.WriteString(styles.MutedText.Render("  " + name))
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(44)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

func helpRow(binding key.Binding, theme Theme, styles Styles) string {
	h := binding.Help()
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Warning)).
		Width(12)
	return keyStyle.Render(h.Key) + styles.Text.Render(h.Desc)
}

// renderCommandBar renders the one-line key hint bar, or the search input
// while a search is being typed.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)

	if m.searching {
		return bg.FillLine(bg.Render("/", styles.AccentText)+m.searchInput.View(), m.width)
	}

	var parts []string
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, bg.Render(h.Key, styles.WarningText)+bg.Space()+bg.Render(h.Desc, styles.MutedText))
	}
	line := bg.Join(parts, "  ")
	if m.statusMsg != "" {
		line += bg.Spaces(2) + bg.Render(m.statusMsg, styles.InfoText)
	}
	return bg.FillLine(line, m.width)
}
