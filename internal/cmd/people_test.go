package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeopleList_ByProjectName(t *testing.T) {
	setupTestEnvWithHandler(t, lookupRoutes())

	res := runCmd(t, "", "people", "list", "--project", "web site", "-o", "text")
	require.NoError(t, res.Err, res.Stderr)
	assert.Contains(t, res.Stdout, "NAME")
	assert.Contains(t, res.Stdout, "Ana Lima")
	assert.Contains(t, res.Stdout, "Bo Chen")
}

func TestPeopleList_FuzzyProjectName(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "Projects", jsonResponse(200, projectsBody)).
		On("GET", "PeopleInProject/12", jsonResponse(200, `[{"id":5,"value":"Ana Lima"}]`))
	setupTestEnvWithHandler(t, handler)

	res := runCmd(t, "", "people", "list", "--project", "web")
	require.NoError(t, res.Err)
	assert.Contains(t, res.Stdout, "Ana Lima")
}

func TestPeopleAssignable_FromURL(t *testing.T) {
	handler := newRouteHandler().On("GET", "PeopleForIssueAssignment/12/42", jsonResponse(200, `[{"id":5,"value":"Ana Lima"}]`))
	setupTestEnvWithHandler(t, handler)

	res := runCmd(t, "", "people", "assignable", "https://acme.mydonedone.com/issuetracker/projects/12/issues/42", "-o", "raw")
	require.NoError(t, res.Err, res.Stderr)
	assert.Equal(t, `[{"id":5,"value":"Ana Lima"}]`, res.Stdout)
}

func TestPeopleAssignable_RequiresProject(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnvWithHandler(t, handler)

	res := runCmd(t, "", "people", "assignable", "42")
	require.Error(t, res.Err)
	assert.Equal(t, exitUsage, ExitCode(res.Err))
	assert.Empty(t, handler.Requests())
}
