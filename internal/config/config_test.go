package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GRIDWIT_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("GCP_PROJECT_ID", "")
	t.Setenv("GCP_REGION", "")
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", c.Server.Port)
	require.Equal(t, 15, c.Puzzle.Size)
	require.Equal(t, "europe-west1", c.GCP.Region)
	require.Empty(t, c.GCP.ProjectID)
	require.Equal(t, "gemini-2.5-flash", c.Gemini.Model)
	require.Equal(t, filepath.Join(home, ".local", "share", "gridwit", "gridwit.db"), c.Database.Path)
}

func TestLoadFileAndEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "gridwit.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[puzzle]
size = 5

[database]
path = "/tmp/x.db"

[client]
api_url = "http://example.test"
`), 0o644))
	t.Setenv("GRIDWIT_CONFIG", path)
	t.Setenv("PORT", "9090")
	t.Setenv("GCP_PROJECT_ID", "my-project")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5, c.Puzzle.Size)
	require.Equal(t, "/tmp/x.db", c.Database.Path)
	require.Equal(t, "http://example.test", c.Client.APIURL)
	require.Equal(t, "9090", c.Server.Port)
	require.Equal(t, "my-project", c.GCP.ProjectID)
}

func TestLoadRejectsBadSize(t *testing.T) {
	isolate(t)
	t.Setenv("GRIDWIT_PUZZLE_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	t.Setenv("GRIDWIT_CONFIG", filepath.Join(t.TempDir(), "nope.toml"))
	_, err := Load()
	require.Error(t, err)
}
