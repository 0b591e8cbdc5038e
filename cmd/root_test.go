package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fulmenhq/navkit/internal/ops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execRoot runs a fresh command tree with args and returns combined output.
func execRoot(t *testing.T, args []string) (string, error) {
	t.Helper()
	root := newRootCommand()
	registerSubcommands(root)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	// Reduce log noise to capture clean command output
	full := append([]string{"--log-level", "error"}, args...)
	root.SetArgs(full)
	err := root.Execute()
	return buf.String(), err
}

func TestRegisterSubcommands_Groups(t *testing.T) {
	root := newRootCommand()
	reg := registerSubcommands(root)

	assert.Equal(t, []string{"dedupe", "fetch", "prune", "reconcile", "split"}, reg.DestructiveCommands())
	groups := reg.ListGroups()
	assert.Equal(t, 3, groups[ops.GroupContent])
	assert.Equal(t, 2, groups[ops.GroupIcons])
	assert.Equal(t, 1, groups[ops.GroupSupport])

	for _, name := range []string{"split", "reconcile", "prune", "dedupe", "fetch", "version"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.NotEmpty(t, c.GroupID, name)
	}
}

func TestVersion_Text(t *testing.T) {
	out, err := execRoot(t, []string{"version"})
	require.NoError(t, err)
	assert.Equal(t, "navkit dev\n", out)
}

func TestVersion_Extended(t *testing.T) {
	out, err := execRoot(t, []string{"version", "--extended"})
	require.NoError(t, err)
	assert.Contains(t, out, "navkit dev\n")
	assert.Contains(t, out, "Go: go")
	assert.Contains(t, out, "Platform: ")
}

func TestVersion_JSON(t *testing.T) {
	out, err := execRoot(t, []string{"--json", "version"})
	require.NoError(t, err)

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	assert.Equal(t, "dev", v["version"])
	assert.Contains(t, v, "go_version")
	assert.Contains(t, v, "platform")
}

func TestUnknownCommandFails(t *testing.T) {
	_, err := execRoot(t, []string{"frobnicate"})
	require.Error(t, err)
}

func TestParseEnsureGeneric(t *testing.T) {
	got, err := parseEnsureGeneric([]string{"github=octo.webp", " googleplay = play.webp "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"github": "octo.webp", "googleplay": "play.webp"}, got)

	got, err = parseEnsureGeneric(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, bad := range []string{"github", "=x.webp", "github="} {
		_, err := parseEnsureGeneric([]string{bad})
		assert.Error(t, err, bad)
	}
}
