package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "itfcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvNvimAddress, "")
	t.Setenv(EnvLogPath, "")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, PreviewConfig{ContextLines: 2, MaxLines: 10, MaxLineLength: 80}, cfg.Preview)
	assert.True(t, cfg.Journal.Enabled)
	assert.False(t, cfg.Workspace.AllowOutsideCwd)
	assert.Empty(t, cfg.Nvim.Address)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvNvimAddress, "")
	t.Setenv(EnvLogPath, "")
	path := writeConfig(t, `
nvim:
  address: /tmp/nvim.sock
workspace:
  allow_outside_cwd: true
preview:
  max_lines: 20
log:
  path: /tmp/itfcore.log
  development: true
journal:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/nvim.sock", cfg.Nvim.Address)
	assert.True(t, cfg.Workspace.AllowOutsideCwd)
	assert.Equal(t, 20, cfg.Preview.MaxLines)
	assert.Equal(t, 80, cfg.Preview.MaxLineLength, "unset fields keep defaults")
	assert.Equal(t, "/tmp/itfcore.log", cfg.Log.Path)
	assert.True(t, cfg.Log.Development)
	assert.False(t, cfg.Journal.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "nvim:\n  address: from-file\n")
	t.Setenv(EnvNvimAddress, "from-env")
	t.Setenv(EnvLogPath, "/var/log/itf.log")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Nvim.Address)
	assert.Equal(t, "/var/log/itf.log", cfg.Log.Path)
}

func TestLoadInvalidBounds(t *testing.T) {
	t.Setenv(EnvNvimAddress, "")
	t.Setenv(EnvLogPath, "")
	path := writeConfig(t, "preview:\n  max_lines: -1\n  max_line_length: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Preview.MaxLines)
	assert.Equal(t, 80, cfg.Preview.MaxLineLength)
	assert.Equal(t, 10, cfg.Preview.Options().MaxLines)
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "nvim: [unclosed")
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}
