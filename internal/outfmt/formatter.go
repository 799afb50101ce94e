package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Column picks a table cell out of a JSON object. Keys are tried in order
// and matched case-insensitively, since the service mixes key styles.
type Column struct {
	Header string
	Keys   []string
}

// Formatter prints response bodies, switching to a table for list
// responses in text mode.
type Formatter struct {
	ctx    context.Context
	out    io.Writer
	errOut io.Writer
}

// NewFormatter creates a Formatter.
func NewFormatter(ctx context.Context, out, errOut io.Writer) *Formatter {
	return &Formatter{ctx: ctx, out: out, errOut: errOut}
}

// Body prints a response body with no table layout.
func (f *Formatter) Body(body []byte) error {
	return WriteBody(f.ctx, f.out, body)
}

// List prints a list response. In text mode a JSON array of objects becomes
// a table; anything else falls through to Body.
func (f *Formatter) List(body []byte, columns []Column) error {
	if !IsText(f.ctx) || GetQuery(f.ctx) != "" || GetTemplate(f.ctx) != "" {
		return f.Body(body)
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return f.Body(body)
	}
	if len(rows) == 0 {
		f.Empty("No results found")
		return nil
	}

	tw := tabwriter.NewWriter(f.out, 0, 4, 2, ' ', 0)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Header
	}
	_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = cell(row, c.Keys)
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// Empty writes a no-results notice to stderr.
func (f *Formatter) Empty(message string) {
	_, _ = fmt.Fprintln(f.errOut, message)
}

func cell(row map[string]any, keys []string) string {
	for _, key := range keys {
		for k, v := range row {
			if !strings.EqualFold(k, key) || v == nil {
				continue
			}
			switch val := v.(type) {
			case float64:
				return strconv.FormatFloat(val, 'f', -1, 64)
			case string:
				return val
			case map[string]any:
				if name := cell(val, []string{"name", "Value"}); name != "" {
					return name
				}
			default:
				return fmt.Sprint(val)
			}
		}
	}
	return ""
}
