package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaList(t *testing.T) {
	res := runCmd(t, "", "schema", "list", "-o", "text")
	require.NoError(t, res.Err)
	assert.Contains(t, res.Stdout, "issue-create")
	assert.Contains(t, res.Stdout, "POST Issue/{project_id}")
}

func TestSchemaShow(t *testing.T) {
	res := runCmd(t, "", "schema", "show", "issue-update")
	require.NoError(t, res.Err)

	var s struct {
		Method     string         `json:"method"`
		Properties map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &s))
	assert.Equal(t, "PUT", s.Method)
	assert.Contains(t, s.Properties, "state_id")

	res = runCmd(t, "", "schema", "show", "comment-create", "-o", "text")
	require.NoError(t, res.Err)
	assert.Contains(t, res.Stdout, "  comment: string, required\n")
	assert.Contains(t, res.Stdout, "  people_to_cc_ids: string (id-list)\n")
}

func TestSchemaShow_Unknown(t *testing.T) {
	res := runCmd(t, "", "schema", "show", "nope", "-o", "text")
	require.Error(t, res.Err)
	assert.Contains(t, res.Stderr, "available: comment-create, issue-create, issue-update")
}
