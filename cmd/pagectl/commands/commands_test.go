package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mx-space/pagecraft/internal/app"
	"github.com/mx-space/pagecraft/internal/client"
	"github.com/mx-space/pagecraft/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startServer(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Parse([]byte(`
env: production
jwt_secret: pagectl-test-secret
database:
  driver: sqlite
  path: ":memory:"
paths:
  logs: ` + filepath.Join(dir, "logs") + `
  uploads: ` + filepath.Join(dir, "uploads") + `
admin:
  username: operator
  email: operator@example.com
  password: hunter2
`))
	require.NoError(t, err)
	a, err := app.New(zap.NewNop(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)
	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandFlow(t *testing.T) {
	url := startServer(t)
	session := filepath.Join(t.TempDir(), "session.json")
	global := []string{"--url", url, "--session", session, "--json"}
	with := func(args ...string) []string { return append(append([]string{}, args...), global...) }

	out, err := run(t, "", with("login", "operator", "-p", "hunter2")...)
	require.NoError(t, err, out)
	var user client.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.True(t, user.IsAdmin)

	out, err = run(t, "", with("whoami")...)
	require.NoError(t, err, out)
	var me client.User
	require.NoError(t, json.Unmarshal([]byte(out), &me))
	assert.Equal(t, "operator", me.Username)
	assert.True(t, me.IsAdmin)

	out, err = run(t, "", with("pages", "create", "--title", "About", "--slug", "about", "--published")...)
	require.NoError(t, err, out)
	var page client.Page
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.True(t, page.IsPublished)

	yamlBlocks := "- type: text\n  content: hello\n- type: image\n  image_url: /uploads/a.png\n"
	out, err = run(t, yamlBlocks, with("blocks", "replace", page.ID, "-f", "-")...)
	require.NoError(t, err, out)

	out, err = run(t, "", with("blocks", "list", "about")...)
	require.NoError(t, err, out)
	var blocks []client.Block
	require.NoError(t, json.Unmarshal([]byte(out), &blocks))
	require.Len(t, blocks, 2)
	assert.Equal(t, client.BlockImage, blocks[1].Type)

	out, err = run(t, "", with("settings", "set", "--name", "From CLI")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, `"site_name": "From CLI"`)

	_, err = run(t, "", with("logout")...)
	require.NoError(t, err)

	_, err = run(t, "", with("pages", "delete", page.ID)...)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestReadBlocks(t *testing.T) {
	drafts, err := readBlocks(strings.NewReader(`[{"id":"b1","type":"text","content":"hi"}]`))
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "b1", drafts[0].ID)
	assert.Equal(t, "hi", *drafts[0].Content)

	drafts, err = readBlocks(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, drafts)

	_, err = readBlocks(strings.NewReader("type: text"))
	assert.Error(t, err)
}

func TestTableAndPreview(t *testing.T) {
	var buf bytes.Buffer
	table(&buf, []string{"ID", "SLUG"}, [][]string{{"1", "home"}, {"22", "about"}})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "22  about")

	assert.Equal(t, "a b", preview("a\n  b"))
	assert.Len(t, []rune(preview(strings.Repeat("x", 100))), 48)
}
