// Package dryrun previews write requests instead of sending them.
package dryrun

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

type contextKey string

const dryRunKey contextKey = "dry_run_enabled"

const maxValueLen = 60

// WithDryRun returns a context with dry-run mode switched on or off.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, dryRunKey, enabled)
}

// IsEnabled reports whether dry-run mode is on for ctx.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(dryRunKey).(bool); ok {
		return v
	}
	return false
}

// Field is one form field shown in a preview.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Preview describes a request that would have been sent.
type Preview struct {
	Method      string   `json:"method"`
	URL         string   `json:"url"`
	ContentType string   `json:"content_type,omitempty"`
	BodyBytes   int      `json:"body_bytes"`
	Signed      bool     `json:"signed"`
	Fields      []Field  `json:"fields,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// FromRequest builds a preview by decoding the request body. The body is
// consumed.
func FromRequest(req *http.Request, signatureHeader string) (*Preview, error) {
	var body []byte
	if req.Body != nil {
		var err error
		if body, err = io.ReadAll(req.Body); err != nil {
			return nil, err
		}
		_ = req.Body.Close()
	}

	p := &Preview{
		Method:      req.Method,
		URL:         req.URL.String(),
		ContentType: req.Header.Get("Content-Type"),
		BodyBytes:   len(body),
		Signed:      signatureHeader != "" && req.Header.Get(signatureHeader) != "",
	}

	mediaType, params, _ := mime.ParseMediaType(p.ContentType)
	switch mediaType {
	case "application/x-www-form-urlencoded":
		fields, err := decodeForm(string(body))
		if err != nil {
			return nil, err
		}
		p.Fields = fields
	case "multipart/form-data":
		if err := p.decodeMultipart(body, params["boundary"]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func decodeForm(body string) ([]Field, error) {
	if body == "" {
		return nil, nil
	}
	var fields []Field
	for _, pair := range strings.Split(body, "&") {
		rawName, rawValue, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(rawName)
		if err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		fields = append(fields, Field{Name: name, Value: value})
	}
	return fields, nil
}

func (p *Preview) decodeMultipart(body []byte, boundary string) error {
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := reader.NextRawPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("invalid multipart body: %w", err)
		}

		disposition := part.Header.Get("Content-Disposition")
		if filename, ok := dispositionParam(disposition, "filename"); ok {
			p.Attachments = append(p.Attachments, filename)
			continue
		}
		name, _ := dispositionParam(disposition, "name")
		value, err := io.ReadAll(part)
		if err != nil {
			return fmt.Errorf("invalid multipart body: %w", err)
		}
		p.Fields = append(p.Fields, Field{Name: name, Value: string(value)})
	}
}

// dispositionParam reads key="value" out of a Content-Disposition header.
// File parts carry a bare filename parameter that mime.ParseMediaType
// rejects, so this scans by hand.
func dispositionParam(header, key string) (string, bool) {
	for _, segment := range strings.Split(header, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(segment), "=")
		if !ok || !strings.EqualFold(k, key) {
			continue
		}
		v = strings.TrimPrefix(strings.TrimSuffix(v, `"`), `"`)
		return strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(v), true
	}
	return "", false
}

// Write prints the preview for a terminal.
func (p *Preview) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\n[DRY-RUN] Would send %s %s\n", p.Method, p.URL)
	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")

	if p.ContentType != "" {
		_, _ = fmt.Fprintf(w, "  content-type: %s\n", p.ContentType)
	}
	_, _ = fmt.Fprintf(w, "  body: %d bytes\n", p.BodyBytes)
	if p.Signed {
		_, _ = fmt.Fprintln(w, "  signed: yes")
	}

	if len(p.Fields) > 0 {
		_, _ = fmt.Fprintln(w, "\nFields:")
		for _, f := range p.Fields {
			_, _ = fmt.Fprintf(w, "  %s = %s\n", f.Name, shorten(f.Value))
		}
	}

	if len(p.Attachments) > 0 {
		_, _ = fmt.Fprintln(w, "\nAttachments:")
		for _, a := range p.Attachments {
			_, _ = fmt.Fprintf(w, "  %s\n", a)
		}
	}

	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")
	_, _ = fmt.Fprintln(w, "No changes made (dry-run mode)")
}

func shorten(s string) string {
	s = strings.ReplaceAll(s, "\n", `\n`)
	if utf8.RuneCountInString(s) <= maxValueLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxValueLen-3]) + "..."
}

// Transport previews every non-GET request instead of sending it and
// answers with an empty 200. GET requests go through Base, so lookups
// still work during a dry run.
type Transport struct {
	Base            http.RoundTripper
	Out             io.Writer
	JSON            bool
	SignatureHeader string
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodGet || req.Method == http.MethodHead {
		return t.base().RoundTrip(req)
	}

	preview, err := FromRequest(req, t.SignatureHeader)
	if err != nil {
		return nil, err
	}
	if t.JSON {
		enc := json.NewEncoder(t.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(preview); err != nil {
			return nil, err
		}
	} else {
		preview.Write(t.Out)
	}

	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{},
		Body:          http.NoBody,
		ContentLength: 0,
		Request:       req,
	}, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}
