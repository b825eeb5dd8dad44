package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/unit-browser/internal/extract"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
source:
  url: https://example.org/vocab/unit
  mirror_url: https://mirror.example.org/unit.ttl
  use_mirror: true
  timeout: 5s
extract:
  classification_policy: first
server:
  port: 9090
  watch: true
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/vocab/unit", cfg.Source.URL)
	assert.Equal(t, "https://mirror.example.org/unit.ttl", cfg.Source.ActiveURL())
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Source.CacheTTL, "unset fields take env-default")
	assert.Equal(t, "first", cfg.Extract.ClassificationPolicy)
	assert.Equal(t, "first", cfg.Extract.UnitCodePolicy)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Watch)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"source": {"files": ["vocab/*.ttl"]},
		"database": {"url": "postgres://localhost/units"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"vocab/*.ttl"}, cfg.Source.Files)
	assert.Equal(t, "postgres://localhost/units", cfg.Database.URL)
	assert.Equal(t, DefaultSourceURL, cfg.Source.URL)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "config.yaml", "server:\n  port: 9090\n")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantMsg string
	}{
		{"empty path", func(*testing.T) string { return "" }, "config path is empty"},
		{"missing file", func(*testing.T) string { return "/nonexistent/config.yaml" }, "failed to read config file"},
		{"bad yaml", func(t *testing.T) string { return writeConfig(t, "c.yaml", "server: [") }, "failed to parse config file"},
		{"bad policy", func(t *testing.T) string {
			return writeConfig(t, "c.yaml", "extract:\n  unit_code_policy: last\n")
		}, "config error"},
		{"mirror without url", func(t *testing.T) string {
			return writeConfig(t, "c.yaml", "source:\n  use_mirror: true\n")
		}, "'use_mirror' requires 'mirror_url'"},
		{"bad port", func(t *testing.T) string {
			return writeConfig(t, "c.yaml", "server:\n  port: 70000\n")
		}, "config error"},
		{"missing template", func(t *testing.T) string {
			return writeConfig(t, "c.yaml", "server:\n  template: /nonexistent/table.tmpl\n")
		}, "template file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.path(t))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceURL, cfg.Source.URL)
	assert.Equal(t, DefaultSourceURL, cfg.Source.ActiveURL())
	assert.Equal(t, 60*time.Second, cfg.Source.Timeout)
	assert.Equal(t, "accumulate", cfg.Extract.ClassificationPolicy)
	assert.Equal(t, extract.DefaultBaseURL, cfg.Extract.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestFromEnv_Files(t *testing.T) {
	t.Setenv("UNIT_SOURCE_FILES", "a.ttl,b/**/*.ttl")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ttl", "b/**/*.ttl"}, cfg.Source.Files)
}

func TestExtractConfig_Options(t *testing.T) {
	opts, err := ExtractConfig{
		ClassificationPolicy: "first",
		UnitCodePolicy:       "accumulate",
		BaseURL:              "https://example.org/u/",
	}.Options()
	require.NoError(t, err)

	assert.Equal(t, extract.PolicyFirstSeen, opts.ClassificationPolicy)
	assert.Equal(t, extract.PolicyAccumulate, opts.UnitCodePolicy)
	assert.Equal(t, "https://example.org/u/", opts.BaseURL)

	_, err = ExtractConfig{UnitCodePolicy: "newest"}.Options()
	assert.Error(t, err)
}

func TestSourceConfig_FetchOptions(t *testing.T) {
	opts := SourceConfig{Timeout: 3 * time.Second, UserAgent: "test-agent", MaxBytes: 1024}.FetchOptions()
	assert.Equal(t, 3*time.Second, opts.Timeout)
	assert.Equal(t, "test-agent", opts.UserAgent)
	assert.Equal(t, int64(1024), opts.MaxBytes)
}

func TestServerConfig_Addr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", ServerConfig{Host: "127.0.0.1", Port: 8080}.Addr())
}
