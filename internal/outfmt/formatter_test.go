package outfmt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var projectColumns = []Column{
	{Header: "ID", Keys: []string{"id"}},
	{Header: "NAME", Keys: []string{"name", "title"}},
	{Header: "STATUS", Keys: []string{"status"}},
}

func TestFormatter_ListTable(t *testing.T) {
	var out, errOut bytes.Buffer
	f := NewFormatter(WithMode(context.Background(), Text), &out, &errOut)

	body := []byte(`[{"ID":1001,"Name":"Website"},{"id":2,"title":"API","status":{"name":"Open"}}]`)
	require.NoError(t, f.List(body, projectColumns))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "NAME", "STATUS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1001", "Website"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "API", "Open"}, strings.Fields(lines[2]))
}

func TestFormatter_ListEmpty(t *testing.T) {
	var out, errOut bytes.Buffer
	f := NewFormatter(WithMode(context.Background(), Text), &out, &errOut)

	require.NoError(t, f.List([]byte(`[]`), projectColumns))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "No results found")
}

func TestFormatter_ListFallsBackToJSON(t *testing.T) {
	var out bytes.Buffer
	f := NewFormatter(WithMode(context.Background(), Text), &out, &out)

	require.NoError(t, f.List([]byte(`{"Message":"not a list"}`), projectColumns))
	assert.Contains(t, out.String(), `"Message": "not a list"`)

	out.Reset()
	f = NewFormatter(context.Background(), &out, &out)
	require.NoError(t, f.List([]byte(`[{"id":1}]`), projectColumns))
	assert.Contains(t, out.String(), `"id": 1`)
}
