package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"ATLASSIAN_SITE_NAME", "ATLASSIAN_BASE_URL", "ATLASSIAN_USER_EMAIL", "ATLASSIAN_API_TOKEN",
	"CONFLUENCE_EXPORT_OUTPUT_DIR", "CONFLUENCE_EXPORT_CONCURRENCY", "CONFLUENCE_EXPORT_CONFIG", "DEBUG",
}

// isolate runs the test in an empty working directory with a clean
// environment.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputDir, c.OutputDir)
	assert.Equal(t, DefaultConcurrency, c.Concurrency)
	assert.False(t, c.Debug)
	require.NoError(t, c.Validate())

	_, ok := c.Credentials()
	assert.False(t, ok)
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
atlassian:
  siteName: fromfile
  userEmail: file@example.com
  apiToken: file-token
outputDir: file-out
concurrency: 4
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(`
# local overrides
ATLASSIAN_API_TOKEN="env-file-token"
export CONFLUENCE_EXPORT_OUTPUT_DIR=dotenv-out
`), 0o644))
	t.Setenv("CONFLUENCE_EXPORT_OUTPUT_DIR", "env-out")
	t.Setenv("DEBUG", "true")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromfile", c.Atlassian.SiteName)
	assert.Equal(t, "env-file-token", c.Atlassian.APIToken)
	assert.Equal(t, "env-out", c.OutputDir, "variables already set win over .env")
	assert.Equal(t, 4, c.Concurrency)
	assert.True(t, c.Debug)

	credentials, ok := c.Credentials()
	assert.True(t, ok)
	assert.Equal(t, "file@example.com", credentials.Email)
}

func TestLoadDefaultPath(t *testing.T) {
	dir := isolate(t)
	configDir := filepath.Join(dir, "xdg", "confluence-export")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("concurrency: 3\n"), 0o644))

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Concurrency)
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicit config file must exist")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("concurrency: [\n"), 0o644))
	_, err = Load(broken)
	assert.Error(t, err)

	t.Setenv("CONFLUENCE_EXPORT_CONCURRENCY", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"valid credentials", func(c *Config) {
			c.Atlassian = Atlassian{SiteName: "acme", UserEmail: "dev@acme.com", APIToken: "t"}
		}, false},
		{"bad email", func(c *Config) { c.Atlassian.UserEmail = "not-an-email" }, true},
		{"bad base url", func(c *Config) { c.Atlassian.BaseURL = "not a url" }, true},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, true},
		{"too much concurrency", func(c *Config) { c.Concurrency = MaxConcurrency + 1 }, true},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			if tt.wantErr {
				assert.Error(t, c.Validate())
			} else {
				assert.NoError(t, c.Validate())
			}
		})
	}
}

func TestParseEnvLine(t *testing.T) {
	tests := []struct {
		line      string
		key, val  string
		wantFound bool
	}{
		{"KEY=value", "KEY", "value", true},
		{"export KEY='quoted value'", "KEY", "quoted value", true},
		{"KEY = \"a=b\"", "KEY", "a=b", true},
		{"novalue", "", "", false},
		{"=x", "", "", false},
	}
	for _, tt := range tests {
		key, val, ok := parseEnvLine(tt.line)
		assert.Equal(t, tt.wantFound, ok, tt.line)
		assert.Equal(t, tt.key, key, tt.line)
		assert.Equal(t, tt.val, val, tt.line)
	}
}
