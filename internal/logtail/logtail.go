package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Attr is one key=value pair of a log record.
type Attr struct {
	Key   string
	Value string
}

// Entry is a parsed slog text-handler record.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   []Attr
	Raw     string
}

// ParseLine splits a key=value log line as written by slog.TextHandler.
// Lines that do not parse keep only Raw and Message.
func ParseLine(line string) Entry {
	entry := Entry{Raw: line}
	attrs, ok := splitPairs(line)
	if !ok || len(attrs) == 0 {
		entry.Message = strings.TrimSpace(line)
		return entry
	}
	for _, attr := range attrs {
		switch attr.Key {
		case "time":
			if ts, err := time.Parse(time.RFC3339Nano, attr.Value); err == nil {
				entry.Time = ts
			}
		case "level":
			entry.Level = strings.ToUpper(attr.Value)
		case "msg":
			entry.Message = attr.Value
		default:
			entry.Attrs = append(entry.Attrs, attr)
		}
	}
	return entry
}

// Format renders an entry as a single readable line.
func (e Entry) Format() string {
	if e.Level == "" && e.Time.IsZero() {
		return e.Message
	}
	parts := make([]string, 0, 3+len(e.Attrs))
	if !e.Time.IsZero() {
		parts = append(parts, e.Time.In(time.Local).Format("2006-01-02 15:04:05"))
	}
	level := e.Level
	if level == "" {
		level = "INFO"
	}
	parts = append(parts, level)
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	for _, attr := range e.Attrs {
		parts = append(parts, attr.Key+"="+attr.Value)
	}
	return strings.Join(parts, " ")
}

// ErrorsOnly keeps WARN and ERROR entries.
func ErrorsOnly(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Level == "WARN" || e.Level == "ERROR" {
			out = append(out, e)
		}
	}
	return out
}

func splitPairs(line string) ([]Attr, bool) {
	var attrs []Attr
	rest := strings.TrimSpace(line)
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 || strings.ContainsAny(rest[:eq], " \"") {
			return nil, false
		}
		key := rest[:eq]
		rest = rest[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			quoted, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return nil, false
			}
			unquoted, err := strconv.Unquote(quoted)
			if err != nil {
				return nil, false
			}
			value = unquoted
			rest = rest[len(quoted):]
		} else {
			end := strings.IndexByte(rest, ' ')
			if end < 0 {
				end = len(rest)
			}
			value = rest[:end]
			rest = rest[end:]
		}
		attrs = append(attrs, Attr{Key: key, Value: value})
		rest = strings.TrimLeft(rest, " ")
	}
	return attrs, true
}
