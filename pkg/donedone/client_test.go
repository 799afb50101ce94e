package donedone

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points a client at an httptest server mounted under the
// real API prefix.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New("acme", "alice", "s3cret")
	client.BaseURL = server.URL + apiPathPrefix
	client.FS = afero.NewMemMapFs()
	return client, server
}

func TestNew(t *testing.T) {
	client := New("acme", "alice", "s3cret")

	assert.Equal(t, "https://acme.mydonedone.com/IssueTracker/API/", client.BaseURL)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("alice:s3cret")), client.Credentials().BasicToken())
	assert.False(t, client.Credentials().Signing())
	require.NotNil(t, client.HTTP)
	assert.Equal(t, DefaultTimeout, client.HTTP.Timeout)
	assert.NotNil(t, client.FS)
}

func TestNewWithSigning(t *testing.T) {
	client := NewWithSigning("acme", "alice", "pw", "tok")
	assert.True(t, client.Credentials().Signing())
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("alice:pw")), client.Credentials().BasicToken())

	unsigned := NewWithSigning("acme", "alice", "pw", "")
	assert.False(t, unsigned.Credentials().Signing())
}

func TestURL(t *testing.T) {
	client := New("acme", "u", "p")

	tests := []struct {
		path     string
		expected string
	}{
		{"Projects", "https://acme.mydonedone.com/IssueTracker/API/Projects"},
		{"/Issue/1/2", "https://acme.mydonedone.com/IssueTracker/API/Issue/1/2"},
		{"", "https://acme.mydonedone.com/IssueTracker/API/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, client.URL(tt.path), "URL(%q)", tt.path)
	}

	client.BaseURL = "http://localhost:8080/IssueTracker/API"
	assert.Equal(t, "http://localhost:8080/IssueTracker/API/Projects", client.URL("Projects"))
}

func TestMethod(t *testing.T) {
	tests := []struct {
		name        string
		fields      Fields
		attachments []string
		update      bool
		want        string
	}{
		{"nothing to send", nil, nil, false, http.MethodGet},
		{"nothing to send ignores update", nil, nil, true, http.MethodGet},
		{"fields only", Fields{{"a", "b"}}, nil, false, http.MethodPost},
		{"fields with update", Fields{{"a", "b"}}, nil, true, http.MethodPut},
		{"empty field set is still a body", Fields{}, nil, true, http.MethodPut},
		{"attachments only", nil, []string{"x.txt"}, false, http.MethodPost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Method(tt.fields, tt.attachments, tt.update))
		})
	}
}

func TestDo_GET(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/IssueTracker/API/PriorityLevels", r.URL.Path)
		assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("alice:s3cret")), r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get(SignatureHeader))
		assert.Empty(t, r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		_, _ = w.Write([]byte(`[{"Value":1,"Name":"Low"}]`))
	})

	body, err := client.Do(context.Background(), "PriorityLevels", nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, `[{"Value":1,"Name":"Low"}]`, string(body))
}

func TestDo_POSTForm(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "comment=hello+world&people_to_cc_ids=1%2C2", string(body))
		assert.Equal(t, int64(len(body)), r.ContentLength)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	fields := Fields{}.Add("comment", "hello world").Add("people_to_cc_ids", "1,2")
	body, err := client.Do(context.Background(), "Comment/1/2", fields, nil, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestDo_PUT(t *testing.T) {
	var gotMethod string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.Do(context.Background(), "Issue/1/2", Fields{{"title", "x"}}, nil, true)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
}

func TestDo_Signature(t *testing.T) {
	var gotSig, gotURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotURL = r.URL.String()
		assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("alice:pw")), r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewWithSigning("acme", "alice", "pw", "signing-token")
	client.BaseURL = server.URL + apiPathPrefix

	fields := Fields{{"title", "Bug"}, {"description", "broken"}}
	_, err := client.Do(context.Background(), "Issue/9", fields, nil, false)
	require.NoError(t, err)

	assert.Equal(t, "/IssueTracker/API/Issue/9", gotURL)
	assert.Equal(t, Sign(client.URL("Issue/9"), fields, "signing-token"), gotSig)
}

func TestDo_APIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"Message":"No issue found"}`},
		{"unauthorized", http.StatusUnauthorized, `{"Message":"Authorization has been denied"}`},
		{"validation", http.StatusUnprocessableEntity, `{"errors":{"title":["can't be blank"]}}`},
		{"server error", http.StatusInternalServerError, `oops`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Request-Id", "req-7")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			body, err := client.Do(context.Background(), "Issue/1/2", nil, nil, false)
			require.Error(t, err)
			assert.Nil(t, body)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "expected *APIError, got %T", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.body, apiErr.Body)
			assert.Equal(t, "req-7", apiErr.RequestID)
			assert.False(t, IsTransportError(err))
		})
	}
}

func TestDo_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := New("acme", "u", "p")
	client.BaseURL = url + apiPathPrefix

	_, err := client.Do(context.Background(), "Projects", nil, nil, false)
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.False(t, IsAPIError(err))
	assert.Equal(t, 0, StatusCode(err))
}

func TestDo_ContextTimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Do(ctx, "Projects", nil, nil, false)
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, ErrTimeout, StructuredErrorFromError(err).Code)
}

func TestDo_MissingAttachmentSendsNothing(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := client.Do(context.Background(), "Issue/1", Fields{{"title", "x"}}, []string{"/nope/missing.png"}, false)
	require.Error(t, err)

	var ioErr *LocalIOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "/nope/missing.png", ioErr.Path)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestDo_Multipart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		parts := readParts(t, r)
		require.Len(t, parts, 2)
		assert.Equal(t, `form-data; name="comment"`, parts[0].header.Get("Content-Disposition"))
		assert.Equal(t, "see attached", parts[0].body)
		assert.Equal(t, `filename="trace.log"`, parts[1].header.Get("Content-Disposition"))
		assert.Equal(t, "text/plain", parts[1].header.Get("Content-Type"))
		assert.Equal(t, "line 1\nline 2\n", parts[1].body)
		_, _ = w.Write([]byte(`{}`))
	})
	require.NoError(t, afero.WriteFile(client.FS, "/tmp/trace.log", []byte("line 1\nline 2\n"), 0o644))

	_, err := client.Do(context.Background(), "Comment/1/2", Fields{{"comment", "see attached"}}, []string{"/tmp/trace.log"}, false)
	require.NoError(t, err)
}

func TestDo_UserAgent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "donedone-cli/test", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[]`))
	})
	client.UserAgent = "donedone-cli/test"

	_, err := client.Do(context.Background(), "Projects", nil, nil, false)
	require.NoError(t, err)
}

func TestNewRequest_DoesNotSend(t *testing.T) {
	client := New("acme", "u", "p")
	req, err := client.NewRequest(context.Background(), "Issue/3", Fields{{"title", "a b"}}, nil, false)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "https://acme.mydonedone.com/IssueTracker/API/Issue/3", req.URL.String())
	assert.Equal(t, int64(len("title=a+b")), req.ContentLength)
	body, _ := io.ReadAll(req.Body)
	assert.Equal(t, "title=a+b", string(body))
}

func TestClient_ConcurrentUse(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(r.URL.Path))
	})

	const n = 16
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := client.Issues().Get(context.Background(), 1, 2)
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, int32(n), atomic.LoadInt32(&calls))
}
