package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/five82/ts3view/internal/viewer"
)

// PlainOptions configure RenderPlain.
type PlainOptions struct {
	Width   int // zero disables truncation and centering
	ShowIDs bool
	Compact bool
}

// RenderPlain writes the tree as indented text without colors. A nil tree
// writes the fallback message instead.
func RenderPlain(w io.Writer, tree *viewer.Tree, fallback string, opts PlainOptions) error {
	if tree == nil {
		if fallback == "" {
			fallback = viewer.FallbackMessage
		}
		_, err := fmt.Fprintln(w, fallback)
		return err
	}

	lo := lineOptions{ShowIDs: opts.ShowIDs, Compact: opts.Compact}
	var b strings.Builder
	for _, line := range flattenTree(tree, lo) {
		b.WriteString(plainLine(line, tree, lo, opts.Width))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func plainLine(line treeLine, tree *viewer.Tree, opts lineOptions, width int) string {
	prefix := indent(line.depth) + glyph(line.icon) + " "
	text := line.label(opts)
	if line.kind == lineServer {
		text += "  " + serverSummary(tree)
	}
	if line.centered && width > 0 {
		text = center(text, width-runewidth.StringWidth(prefix))
	}
	out := prefix + text
	if width > 0 {
		out = strings.TrimRight(truncate(out, width), " ")
	}
	return out
}

// serverSummary is the "clients/max, uptime" suffix of the server row.
func serverSummary(tree *viewer.Tree) string {
	s := tree.Server
	clients := s.ClientsOnline - s.QueryClientsOnline
	if clients < 0 {
		clients = 0
	}
	parts := []string{fmt.Sprintf("%d/%d online", clients, s.MaxClients)}
	if s.Uptime > 0 {
		parts = append(parts, "up "+formatUptime(s.Uptime))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
