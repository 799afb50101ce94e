package donedone

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DueDateLayout is the format due_date values are sent in.
const DueDateLayout = "2006-01-02"

// Field is one form value.
type Field struct {
	Name  string
	Value string
}

// Fields is an ordered form field set. Body encoding keeps insertion order;
// signing uses Sorted.
type Fields []Field

// Add appends name=value and returns the extended set.
func (f Fields) Add(name, value string) Fields {
	return append(f, Field{Name: name, Value: value})
}

// AddInt appends an integer field.
func (f Fields) AddInt(name string, value int) Fields {
	return f.Add(name, strconv.Itoa(value))
}

// AddString appends name only when value is non-empty.
func (f Fields) AddString(name, value string) Fields {
	if value == "" {
		return f
	}
	return f.Add(name, value)
}

// AddIDs appends a comma-separated ID list, or nothing for an empty list.
func (f Fields) AddIDs(name string, ids []int) Fields {
	if len(ids) == 0 {
		return f
	}
	return f.Add(name, JoinIDs(ids))
}

// AddDate appends a date in DueDateLayout, or nothing for a nil date.
func (f Fields) AddDate(name string, t *time.Time) Fields {
	if t == nil {
		return f
	}
	return f.Add(name, t.Format(DueDateLayout))
}

// Get returns the first value for name.
func (f Fields) Get(name string) (string, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}

// Names lists field names in order.
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, field := range f {
		names[i] = field.Name
	}
	return names
}

// Sorted returns a copy ordered by name using byte-wise comparison, then by
// value so duplicate names sort deterministically too.
func (f Fields) Sorted() Fields {
	out := make(Fields, len(f))
	copy(out, f)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Encode returns the application/x-www-form-urlencoded form of f.
func (f Fields) Encode() string {
	var b strings.Builder
	for i, field := range f {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(field.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(field.Value))
	}
	return b.String()
}

// EncodeForm encodes fields as an application/x-www-form-urlencoded body,
// keeping their order. Values are UTF-8 and percent-encoded with form
// semantics (space becomes '+'). An empty set yields an empty body.
func EncodeForm(fields Fields) []byte {
	return []byte(fields.Encode())
}

// JoinIDs renders ids as "1,2,3".
func JoinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
