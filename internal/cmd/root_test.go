package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownCommandSuggestion(t *testing.T) {
	res := runCmd(t, "", "projcts")
	require.Error(t, res.Err)
	assert.Equal(t, exitUsage, ExitCode(res.Err))
	assert.Contains(t, res.Stderr, `unknown command "projcts"`)
	assert.Contains(t, res.Stderr, `Did you mean "projects"?`)
}

func TestUnknownFlagSuggestion(t *testing.T) {
	res := runCmd(t, "", "projects", "list", "--with-isues")
	require.Error(t, res.Err)
	assert.Equal(t, exitUsage, ExitCode(res.Err))
	assert.Contains(t, res.Stderr, `Did you mean "--with-issues"?`)
	assert.Contains(t, res.Stderr, `Run "donedone projects list --help" to see supported flags.`)
}

func TestRootFlagValidation(t *testing.T) {
	setupTestEnvWithHandler(t, newRouteHandler())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad output", []string{"projects", "list", "-o", "yaml"}, "invalid output format"},
		{"json conflicts", []string{"projects", "list", "--json", "-o", "text"}, "--json conflicts with --output text"},
		{"query and template", []string{"projects", "list", "-q", ".", "--template", "x"}, "cannot be used together"},
		{"raw with query", []string{"projects", "list", "-o", "raw", "-q", "."}, "need --output json or text"},
		{"negative timeout", []string{"projects", "list", "--timeout=-1s"}, "--timeout must be >= 0"},
		{"bad query", []string{"projects", "list", "-q", ".["}, "invalid filter expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCmd(t, "", tt.args...)
			require.Error(t, res.Err)
			assert.Contains(t, res.Stderr, tt.want)
			assert.Equal(t, exitUsage, ExitCode(res.Err))
		})
	}
}

func TestOutputFromEnv(t *testing.T) {
	handler := newRouteHandler().On("GET", "Projects", jsonResponse(200, projectsBody))
	setupTestEnvWithHandler(t, handler)
	t.Setenv("DONEDONE_OUTPUT", "raw")

	res := runCmd(t, "", "projects", "list")
	require.NoError(t, res.Err)
	assert.Equal(t, projectsBody, res.Stdout)
}

func TestQuietKeepsErrors(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "Projects", jsonResponse(200, `[]`)).
		On("GET", "Issue/12/42", jsonResponse(403, `{"Message":"Nope"}`))
	setupTestEnvWithHandler(t, handler)

	res := runCmd(t, "", "projects", "list", "-o", "text", "--quiet")
	require.NoError(t, res.Err)
	assert.Empty(t, res.Stderr)

	res = runCmd(t, "", "issues", "get", "42", "--project", "12", "-o", "text", "--quiet")
	require.Error(t, res.Err)
	assert.Equal(t, exitForbidden, ExitCode(res.Err))
	assert.Contains(t, res.Stderr, "API error (HTTP 403): Nope")
}

func TestTemplateFromFile(t *testing.T) {
	handler := newRouteHandler().On("GET", "Projects", jsonResponse(200, projectsBody))
	setupTestEnvWithHandler(t, handler)

	path := filepath.Join(t.TempDir(), "names.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`{{range .}}{{.name}};{{end}}`), 0o600))

	res := runCmd(t, "", "projects", "list", "--template", "@"+path)
	require.NoError(t, res.Err, res.Stderr)
	assert.Equal(t, "Web site;Mobile;\n", res.Stdout)
}

func TestExtractHelpers(t *testing.T) {
	assert.Equal(t, "projcts", extractQuoted(`unknown command "projcts" for "donedone"`))
	assert.Equal(t, "", extractQuoted("no quotes"))
	assert.Equal(t, "--with-isues", extractFlag("unknown flag: --with-isues"))
	assert.Equal(t, "-z", extractFlag("unknown shorthand flag: 'z' in -z"))
	assert.Equal(t, "", extractFlag("nothing here"))
}
