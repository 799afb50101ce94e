package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/99designs/keyring"

	"github.com/donedone/donedone-cli/internal/config"
	"github.com/donedone/donedone-cli/internal/iocontext"
)

const apiPrefix = "/IssueTracker/API/"

// routeHandler routes requests to canned handlers by method and path and
// records every request it sees.
type routeHandler struct {
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recordedRequest
}

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

func newRouteHandler() *routeHandler {
	return &routeHandler{routes: make(map[string]http.HandlerFunc)}
}

// On registers a handler for method and a path relative to the API root.
func (h *routeHandler) On(method, path string, handler http.HandlerFunc) *routeHandler {
	h.routes[method+" "+apiPrefix+strings.TrimPrefix(path, "/")] = handler
	return h
}

func (h *routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	h.mu.Lock()
	h.requests = append(h.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
	handler, ok := h.routes[r.Method+" "+r.URL.Path]
	h.mu.Unlock()

	if !ok {
		http.Error(w, `{"Message":"no route for `+r.Method+" "+r.URL.Path+`"}`, http.StatusNotFound)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	handler(w, r)
}

// Requests returns a copy of the recorded requests.
func (h *routeHandler) Requests() []recordedRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]recordedRequest(nil), h.requests...)
}

// last returns the last request with the given method.
func (h *routeHandler) last(t *testing.T, method string) recordedRequest {
	t.Helper()
	reqs := h.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method {
			return reqs[i]
		}
	}
	t.Fatalf("no %s request recorded", method)
	return recordedRequest{}
}

func jsonResponse(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// setupTestEnvWithHandler starts a server and points the environment
// credentials at it.
func setupTestEnvWithHandler(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv(config.EnvSubdomain, "acme")
	t.Setenv(config.EnvUsername, "ana")
	t.Setenv(config.EnvAPIToken, "token-1234")
	t.Setenv(config.EnvBaseURL, server.URL+apiPrefix)
	return server
}

// useFreshKeyring gives the test an empty in-memory keyring.
func useFreshKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	restore := config.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) { return ring, nil })
	t.Cleanup(restore)
}

type result struct {
	Stdout string
	Stderr string
	Err    error
}

// runCmd executes the CLI with captured streams and optional stdin.
func runCmd(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	ctx := iocontext.WithIO(context.Background(), &iocontext.IO{
		Out:    &stdout,
		ErrOut: &stderr,
		In:     strings.NewReader(stdin),
	})
	err := Execute(ctx, args)
	return result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}
