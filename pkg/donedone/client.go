// Package donedone is a client for the DoneDone IssueTracker HTTP API.
//
// Every call is a single request: the endpoint wrappers build an ordered
// field set and hand it to Client.Do, which picks the HTTP method, encodes
// the body (form-urlencoded, or multipart when files are attached), adds
// Basic auth and the optional request signature, and returns the raw JSON
// body. Parsing the JSON is left to the caller.
package donedone

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/donedone/donedone-cli/internal/debug"
)

const (
	DefaultTimeout = 30 * time.Second

	// ServiceHost is the hosted service domain that customer subdomains live under.
	ServiceHost = "mydonedone.com"

	// SignatureHeader carries the HMAC-SHA1 request signature.
	SignatureHeader = "X-DoneDone-Signature"

	apiPathPrefix = "/IssueTracker/API/"
)

// Credentials holds the precomputed Basic auth token and the optional
// signing token. It is immutable after construction.
type Credentials struct {
	basic        string
	signingToken string
}

// NewCredentials encodes username:secret for Basic auth.
func NewCredentials(username, secret string) Credentials {
	return Credentials{
		basic: base64.StdEncoding.EncodeToString([]byte(username + ":" + secret)),
	}
}

// WithSigningToken returns a copy that also signs each request with token.
func (c Credentials) WithSigningToken(token string) Credentials {
	c.signingToken = token
	return c
}

// BasicToken returns the base64 value used after "Basic " in the Authorization header.
func (c Credentials) BasicToken() string {
	return c.basic
}

// Signing reports whether requests carry an X-DoneDone-Signature header.
func (c Credentials) Signing() bool {
	return c.signingToken != ""
}

// Client is the DoneDone IssueTracker API client.
//
// A Client holds no mutable state between calls and is safe for concurrent
// use as long as HTTP is (the default *http.Client is).
type Client struct {
	BaseURL   string
	HTTP      *http.Client
	UserAgent string
	// FS is where attachment paths are opened.
	FS afero.Fs
	// Debug logs every request through slog, as debug.WithDebug does per call.
	Debug bool

	creds Credentials
}

// BaseURLFor returns https://{subdomain}.mydonedone.com/IssueTracker/API/.
func BaseURLFor(subdomain string) string {
	return fmt.Sprintf("https://%s.%s%s", subdomain, ServiceHost, apiPathPrefix)
}

// New creates a client that authenticates with username and a password or API token.
func New(subdomain, username, secret string) *Client {
	return newClient(subdomain, NewCredentials(username, secret))
}

// NewWithSigning creates a client that authenticates with username and
// password and additionally signs every request with signingToken.
// An empty signingToken disables signing.
func NewWithSigning(subdomain, username, password, signingToken string) *Client {
	return newClient(subdomain, NewCredentials(username, password).WithSigningToken(signingToken))
}

func newClient(subdomain string, creds Credentials) *Client {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	return &Client{
		BaseURL: BaseURLFor(subdomain),
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		FS:    afero.NewOsFs(),
		creds: creds,
	}
}

// Credentials returns the client's credentials.
func (c *Client) Credentials() Credentials {
	return c.creds
}

// URL joins the base URL and a method path such as "Issue/1/2".
func (c *Client) URL(path string) string {
	base := c.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(path, "/")
}

// Method returns GET when there is nothing to send, otherwise POST, or PUT
// for updates.
func Method(fields Fields, attachments []string, update bool) string {
	if fields == nil && attachments == nil {
		return http.MethodGet
	}
	if update {
		return http.MethodPut
	}
	return http.MethodPost
}

// NewRequest builds the request Do would send, without sending it.
// Attachments are read here, so a missing file fails with *LocalIOError
// before any network I/O.
func (c *Client) NewRequest(ctx context.Context, path string, fields Fields, attachments []string, update bool) (*http.Request, error) {
	method := Method(fields, attachments, update)
	url := c.URL(path)

	var (
		body        []byte
		contentType string
	)
	switch {
	case method == http.MethodGet:
	case attachments == nil:
		body = EncodeForm(fields)
		contentType = "application/x-www-form-urlencoded"
	default:
		mp, err := BuildMultipart(c.fs(), fields, attachments)
		if err != nil {
			return nil, err
		}
		body = mp.Body
		contentType = mp.ContentType()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.ContentLength = int64(len(body))
	}

	req.Header.Set("Authorization", "Basic "+c.creds.basic)
	if c.creds.Signing() {
		req.Header.Set(SignatureHeader, Sign(url, fields, c.creds.signingToken))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Do sends one API call and returns the raw response body.
//
// With fields and attachments both nil the call is a GET. Otherwise it is a
// POST, or a PUT when update is set. Non-2xx responses return *APIError,
// failures to get any response return *TransportError, and unreadable
// attachments return *LocalIOError.
func (c *Client) Do(ctx context.Context, path string, fields Fields, attachments []string, update bool) ([]byte, error) {
	req, err := c.NewRequest(ctx, path, fields, attachments, update)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		if c.debugEnabled(ctx) {
			slog.Debug("request failed", "method", req.Method, "url", req.URL.String(), "error", err)
		}
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if c.debugEnabled(ctx) {
		slog.Debug("request complete",
			"method", req.Method,
			"url", req.URL.String(),
			"request_bytes", req.ContentLength,
			"signed", c.creds.Signing(),
			"status", resp.StatusCode,
			"duration", time.Since(start))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			RequestID:  requestIDFromHeader(resp.Header),
		}
	}
	return respBody, nil
}

func (c *Client) debugEnabled(ctx context.Context) bool {
	return c.Debug || debug.IsEnabled(ctx)
}

func (c *Client) fs() afero.Fs {
	if c.FS == nil {
		return afero.NewOsFs()
	}
	return c.FS
}

func requestIDFromHeader(header http.Header) string {
	if header == nil {
		return ""
	}
	return header.Get("X-Request-Id")
}
