package query

import (
	"strconv"
	"strings"
)

// Field is one name=value pair of a record, value already unescaped.
type Field struct {
	Name  string
	Value string
}

// Record is one entity of a section in wire order.
type Record []Field

// Lookup returns the value for name. When a name repeats, the last one wins.
func (r Record) Lookup(name string) (string, bool) {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i].Name == name {
			return r[i].Value, true
		}
	}
	return "", false
}

// Get returns the value for name or an empty string.
func (r Record) Get(name string) string {
	v, _ := r.Lookup(name)
	return v
}

// Int parses name as a base-10 integer. Missing or non-numeric values are 0.
func (r Record) Int(name string) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.Get(name)))
	if err != nil {
		return 0
	}
	return v
}

// Int64 is Int for values that may exceed 32 bits, such as icon ids.
func (r Record) Int64(name string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(r.Get(name)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// IntOr parses name like Int but returns def when the field is absent or bad.
func (r Record) IntOr(name string, def int) int {
	raw, ok := r.Lookup(name)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}

// Bool reports whether name is "1".
func (r Record) Bool(name string) bool {
	return r.Int(name) == 1
}

// DecodeRecords splits one section into records. Records are separated by
// '|', pairs by a single space, and a pair without '=' keeps an empty value.
func DecodeRecords(section string) []Record {
	if section == "" {
		return nil
	}
	items := strings.Split(section, "|")
	records := make([]Record, 0, len(items))
	for _, item := range items {
		pairs := strings.Split(item, " ")
		rec := make(Record, 0, len(pairs))
		for _, pair := range pairs {
			if pair == "" {
				continue
			}
			name, value, _ := strings.Cut(pair, "=")
			rec = append(rec, Field{Name: name, Value: Unescape(value)})
		}
		records = append(records, rec)
	}
	return records
}
