package ui

import (
	"strconv"
	"strings"

	"github.com/five82/ts3view/internal/viewer"
)

type lineKind int

const (
	lineServer lineKind = iota
	lineChannel
	lineUser
)

// treeLine is one row of the flattened tree, shared by the TUI and the
// plain renderer.
type treeLine struct {
	kind     lineKind
	depth    int
	id       int
	icon     string
	name     string
	centered bool
	flags    []string
	detail   string // channel topic or away message
}

// lineOptions control what each row carries.
type lineOptions struct {
	ShowIDs bool
	Compact bool
}

var iconGlyphs = map[string]string{
	viewer.IconServerGreen:   "◆",
	viewer.IconChannelGreen:  "○",
	viewer.IconChannelYellow: "◐",
	viewer.IconChannelRed:    "●",

	viewer.IconIdle:                "·",
	viewer.IconTalking:             "»",
	viewer.IconAway:                "z",
	viewer.IconOutputMuted:         "×",
	viewer.IconOutputHardwareMuted: "⊗",
	viewer.IconInputMuted:          "ø",
	viewer.IconInputHardwareMuted:  "⊘",
}

func glyph(icon string) string {
	if g, ok := iconGlyphs[icon]; ok {
		return g
	}
	return "?"
}

// flattenTree walks the tree depth first: each channel is followed by its
// users and then its sub-channels.
func flattenTree(tree *viewer.Tree, opts lineOptions) []treeLine {
	if tree == nil {
		return nil
	}
	lines := []treeLine{{
		kind: lineServer,
		icon: tree.Icon,
		name: tree.Name,
	}}
	for _, ch := range tree.Channels {
		lines = appendChannel(lines, ch, 1, opts)
	}
	return lines
}

func appendChannel(lines []treeLine, ch viewer.RenderedChannel, depth int, opts lineOptions) []treeLine {
	line := treeLine{
		kind:     lineChannel,
		depth:    depth,
		id:       ch.ID,
		icon:     ch.Icon,
		name:     ch.Name,
		centered: ch.Class == viewer.ClassCentered,
	}
	if !ch.SuppressFlags {
		line.flags = ch.Flags
	}
	if !opts.Compact {
		line.detail = strings.TrimSpace(ch.Topic)
	}
	lines = append(lines, line)

	for _, u := range ch.Users {
		ul := treeLine{
			kind:  lineUser,
			depth: depth + 1,
			icon:  u.Icon,
			name:  u.Name,
			flags: u.Flags,
		}
		if !opts.Compact {
			ul.detail = strings.TrimSpace(u.AwayMessage)
		}
		lines = append(lines, ul)
	}
	for _, child := range ch.Children {
		lines = appendChannel(lines, child, depth+1, opts)
	}
	return lines
}

// label is the row text after the glyph: name, flags, id and detail.
func (l treeLine) label(opts lineOptions) string {
	var b strings.Builder
	b.WriteString(l.name)
	if l.kind == lineChannel && opts.ShowIDs {
		b.WriteString(" #")
		b.WriteString(strconv.Itoa(l.id))
	}
	if len(l.flags) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(l.flags, " "))
		b.WriteString("]")
	}
	if l.detail != "" {
		b.WriteString(" - ")
		b.WriteString(l.detail)
	}
	return b.String()
}

// matches reports whether the row name contains query, case-insensitively.
func (l treeLine) matches(query string) bool {
	if query == "" {
		return false
	}
	return strings.Contains(strings.ToLower(l.name), strings.ToLower(query))
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
