// Package query decodes TeamSpeak 3 ServerQuery text: the escape codec, the
// record and field grammar, and the five-section status response that the
// viewer builds its tree from.
package query

import "strings"

// escapePairs lists wire escapes and the literal byte each one stands for.
// The backslash entry must stay first so Escape never re-escapes its own output.
var escapePairs = []struct {
	escaped string
	literal string
}{
	{`\\`, "\\"},
	{`\/`, "/"},
	{`\s`, " "},
	{`\p`, "|"},
	{`\a`, "\a"},
	{`\b`, "\b"},
	{`\f`, "\f"},
	{`\n`, "\n"},
	{`\r`, "\r"},
	{`\t`, "\t"},
	{`\v`, "\v"},
}

var (
	unescaper = newReplacer(false)
	escaper   = newReplacer(true)
)

func newReplacer(reverse bool) *strings.Replacer {
	oldnew := make([]string, 0, len(escapePairs)*2)
	for _, p := range escapePairs {
		if reverse {
			oldnew = append(oldnew, p.literal, p.escaped)
		} else {
			oldnew = append(oldnew, p.escaped, p.literal)
		}
	}
	return strings.NewReplacer(oldnew...)
}

// Unescape turns a ServerQuery value into its literal text. Replacement is a
// single left-to-right pass, so `\\s` decodes to `\s` and not to a space.
// Unknown sequences are left untouched.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return unescaper.Replace(s)
}

// Escape is the inverse of Unescape and is used for command arguments.
func Escape(s string) string {
	return escaper.Replace(s)
}
