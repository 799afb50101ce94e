// Package outfmt renders API response bodies for the terminal.
package outfmt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/donedone/donedone-cli/internal/filter"
)

// Mode selects how response bodies are printed.
type Mode int

const (
	// JSON pretty-prints the response body.
	JSON Mode = iota
	// Raw writes the body exactly as the service returned it.
	Raw
	// Text prints a table for list responses and JSON for everything else.
	Text
)

type (
	modeKey     struct{}
	compactKey  struct{}
	queryKey    struct{}
	templateKey struct{}
)

// Parse parses an --output value.
func Parse(s string) (Mode, error) {
	switch s {
	case "json", "":
		return JSON, nil
	case "raw":
		return Raw, nil
	case "text", "table":
		return Text, nil
	default:
		return JSON, fmt.Errorf("invalid output format: %q (use 'json', 'raw', or 'text')", s)
	}
}

func (m Mode) String() string {
	switch m {
	case Raw:
		return "raw"
	case Text:
		return "text"
	default:
		return "json"
	}
}

// WithMode adds the output mode to the context.
func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, modeKey{}, mode)
}

// ModeFromContext returns the output mode, JSON when unset.
func ModeFromContext(ctx context.Context) Mode {
	if mode, ok := ctx.Value(modeKey{}).(Mode); ok {
		return mode
	}
	return JSON
}

// IsText reports whether the context asks for human-oriented output.
func IsText(ctx context.Context) bool {
	return ModeFromContext(ctx) == Text
}

// WithCompact adds the compact flag to the context.
func WithCompact(ctx context.Context, compact bool) context.Context {
	return context.WithValue(ctx, compactKey{}, compact)
}

// IsCompact reports whether single-line JSON was requested.
func IsCompact(ctx context.Context) bool {
	c, _ := ctx.Value(compactKey{}).(bool)
	return c
}

// WithQuery adds a jq expression to the context.
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

// GetQuery returns the jq expression on the context.
func GetQuery(ctx context.Context) string {
	q, _ := ctx.Value(queryKey{}).(string)
	return q
}

// WithTemplate adds a Go template to the context.
func WithTemplate(ctx context.Context, tmpl string) context.Context {
	return context.WithValue(ctx, templateKey{}, tmpl)
}

// GetTemplate returns the Go template on the context.
func GetTemplate(ctx context.Context) string {
	t, _ := ctx.Value(templateKey{}).(string)
	return t
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	return WriteJSONMaybeCompact(w, v, false)
}

// WriteJSONMaybeCompact writes v as JSON, on one line when compact is set.
func WriteJSONMaybeCompact(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteBody prints a response body according to the context's settings.
//
// Without a query or template the JSON is reformatted in place, so key
// order and number formatting survive. Bodies that are not JSON are
// written unchanged.
func WriteBody(ctx context.Context, w io.Writer, body []byte) error {
	query, tmpl := GetQuery(ctx), GetTemplate(ctx)

	if query == "" && tmpl == "" {
		if ModeFromContext(ctx) == Raw {
			_, err := w.Write(body)
			return err
		}
		if !json.Valid(body) {
			return writeVerbatim(w, body)
		}
		var buf bytes.Buffer
		var err error
		if IsCompact(ctx) {
			err = json.Compact(&buf, body)
		} else {
			err = json.Indent(&buf, body, "", "  ")
		}
		if err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err = w.Write(buf.Bytes())
		return err
	}

	if !json.Valid(body) {
		return fmt.Errorf("response is not JSON; --query and --template need a JSON body")
	}
	data, err := filter.ApplyFromJSON(body, query)
	if err != nil {
		return err
	}
	if tmpl != "" {
		return WriteTemplate(w, data, tmpl)
	}
	return WriteJSONMaybeCompact(w, data, IsCompact(ctx))
}

func writeVerbatim(w io.Writer, body []byte) error {
	if _, err := w.Write(body); err != nil {
		return err
	}
	if len(body) > 0 && body[len(body)-1] != '\n' {
		_, err := w.Write([]byte{'\n'})
		return err
	}
	return nil
}
