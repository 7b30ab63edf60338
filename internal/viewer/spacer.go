package viewer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/five82/ts3view/internal/query"
)

// ClassCentered marks names the presentation layer should center.
const ClassCentered = "centered"

// spacerFillWidth is the minimum rune length of a repeated-fill spacer.
const spacerFillWidth = 100

var spacerPattern = regexp.MustCompile(`\[(.*)spacer([\p{L}\w]+)?\]`)

// ParsedName is a channel name after spacer handling.
type ParsedName struct {
	Name          string
	Class         string
	SuppressFlags bool
}

// ParseChannelName rewrites spacer channel names. Only permanent root-level
// channels can be spacers; a name like "[cspacer1]Welcome" becomes a centered
// "Welcome", "[*spacer2]-" becomes a line of dashes, and any other marker
// keeps the text after the tag. Spacers never show channel flags.
func ParseChannelName(ch query.Channel) ParsedName {
	parsed := ParsedName{Name: ch.Name}
	if !ch.Permanent || ch.ParentID != 0 {
		return parsed
	}

	m := spacerPattern.FindStringSubmatch(ch.Name)
	if m == nil {
		return parsed
	}
	parsed.SuppressFlags = true

	marker := m[1]
	rest := spacerText(ch.Name, m[0])

	switch {
	case marker == "c":
		parsed.Name = rest
		parsed.Class = ClassCentered
	case marker == "*" || isTriple(rest):
		parsed.Name = fillSpacer(rest)
		parsed.Class = ClassCentered
	default:
		parsed.Name = rest
	}
	return parsed
}

// spacerText returns what follows the first spacer tag, up to a repeat of it.
func spacerText(name, tag string) string {
	_, rest, _ := strings.Cut(name, tag)
	if before, _, found := strings.Cut(rest, tag); found {
		return before
	}
	return rest
}

func isTriple(s string) bool {
	if utf8.RuneCountInString(s) != 3 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s)
	return strings.Repeat(string(first), 3) == s
}

func fillSpacer(unit string) string {
	var b strings.Builder
	count := 0
	unitLen := utf8.RuneCountInString(unit)
	for i := 0; i <= spacerFillWidth; i++ {
		if count >= spacerFillWidth {
			break
		}
		b.WriteString(unit)
		count += unitLen
	}
	return b.String()
}
