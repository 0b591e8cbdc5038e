package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadIn(t *testing.T, dir, file string) (*Config, error) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return Load(NewViper(), file)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadIn(t, t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "public/images/logos", cfg.Paths.Icons)
	assert.Equal(t, "src/content/nav-groups", cfg.Paths.Content)
	assert.Equal(t, "/images/logos", cfg.Icons.Prefix)
	assert.Equal(t, []string{"*.webp"}, cfg.Icons.Patterns)
	assert.Equal(t, "default", cfg.Icons.GenericMarker)
	assert.Equal(t, []string{"github-default.webp", "googleplay-default.webp"}, cfg.Icons.GenericFilenames())
	assert.Equal(t, 5, cfg.Fetch.Workers)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 2, cfg.Fetch.RetryCount)
	assert.Equal(t, time.Second, cfg.Fetch.RetryDelay)
	assert.Equal(t, "/api/icon-resolve", cfg.Fetch.Endpoint)
}

func TestLoadProjectFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
paths:
  icons: assets/icons
icons:
  prefix: /static/icons/
  generic:
    - key: npm
      filename: npm-default.webp
      source_domain: npmjs.com
fetch:
  workers: 8
  timeout: 3s
  base_url: http://localhost:3000/
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "navkit.yaml"), []byte(yaml), 0o644))

	cfg, err := loadIn(t, dir, "")
	require.NoError(t, err)

	assert.Equal(t, "assets/icons", cfg.Paths.Icons)
	assert.Equal(t, "/static/icons", cfg.Icons.Prefix)
	assert.Equal(t, []string{"npm-default.webp"}, cfg.Icons.GenericFilenames())
	assert.Equal(t, 8, cfg.Fetch.Workers)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "http://localhost:3000", cfg.Fetch.BaseURL)
	// untouched keys keep defaults
	assert.Equal(t, "src/content/nav-groups", cfg.Paths.Content)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("NAVKIT_FETCH_WORKERS", "12")
	t.Setenv("NAVKIT_PATHS_CONTENT", "content/groups")

	cfg, err := loadIn(t, t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Fetch.Workers)
	assert.Equal(t, "content/groups", cfg.Paths.Content)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := loadIn(t, dir, filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)

	var pre *PreconditionError
	assert.True(t, errors.As(err, &pre))
}

func TestBindFlags(t *testing.T) {
	v := NewViper()
	fs := pflag.NewFlagSet("dedupe", pflag.ContinueOnError)
	fs.String("icons", "", "")
	fs.Int("workers", 5, "")
	require.NoError(t, fs.Parse([]string{"--icons", "static/logos", "--workers", "3"}))

	require.NoError(t, BindFlags(v, fs, map[string]string{
		"paths.icons":   "icons",
		"fetch.workers": "workers",
		"paths.content": "content", // not defined on this command
	}))

	var decoded Config
	require.NoError(t, v.Unmarshal(&decoded))
	assert.Equal(t, "static/logos", decoded.Paths.Icons)
	assert.Equal(t, 3, decoded.Fetch.Workers)
	assert.Equal(t, "src/content/nav-groups", decoded.Paths.Content)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "relative prefix", mutate: func(c *Config) { c.Icons.Prefix = "images/logos" }, wantErr: "icons.prefix"},
		{name: "no patterns", mutate: func(c *Config) { c.Icons.Patterns = nil }, wantErr: "icons.patterns"},
		{name: "zero workers", mutate: func(c *Config) { c.Fetch.Workers = 0 }, wantErr: "fetch.workers"},
		{name: "zero attempts", mutate: func(c *Config) { c.Fetch.RetryCount = 0 }, wantErr: "fetch.retry_count"},
		{name: "generic without filename", mutate: func(c *Config) { c.Icons.Generic = []GenericIcon{{Key: "x"}} }, wantErr: "icons.generic[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindGeneric(t *testing.T) {
	cfg := Default()
	g, ok := cfg.Icons.FindGeneric("GitHub")
	require.True(t, ok)
	assert.Equal(t, "github-default.webp", g.Filename)

	_, ok = cfg.Icons.FindGeneric("gitlab")
	assert.False(t, ok)
}

func TestRequireDir(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, RequireDir("icons directory", dir))

	err := RequireDir("icons directory", filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "icons directory not found")
}
