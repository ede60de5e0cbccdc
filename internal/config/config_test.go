package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DESIGNAGENT_LLM_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "GROQ_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearKeys(t)
	t.Setenv("DESIGNAGENT_LLM_PROVIDER", "fake")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "UI Design Expert Agent API", cfg.Server.Title)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Len(t, cfg.Server.CORSOrigins, 4)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.InDelta(t, 0.5, cfg.LLM.Temperature.Strategist, 1e-6)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature.Ops, 1e-6)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature.Engineer, 1e-6)
	assert.Equal(t, 1, cfg.LLM.RetryAttempts)
	assert.Equal(t, 5, cfg.LLM.ToolMaxIterations)
	assert.Equal(t, "ui-agent-output", cfg.Export.DefaultOutDir)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearKeys(t)
	path := filepath.Join(t.TempDir(), "designagent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9100
llm:
  provider: gemini
  model: gemini-2.5-flash
  api_key: from-file
  temperature:
    ops: 0.1
store:
  backend: sqlite
  dsn: runs.db
`), 0o644))
	t.Setenv("DESIGNAGENT_LLM_MODEL", "gemini-2.5-pro")
	t.Setenv("DESIGNAGENT_SERVER_CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	assert.Equal(t, "from-file", cfg.LLM.APIKey)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature.Ops, 1e-6)
	assert.InDelta(t, 0.5, cfg.LLM.Temperature.Strategist, 1e-6)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
}

func TestLoad_ProviderKeyAlias(t *testing.T) {
	clearKeys(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoad_EnvFile(t *testing.T) {
	clearKeys(t)
	const key = "DESIGNAGENT_LLM_MODEL"
	prev, had := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})

	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(local, []byte(key+"=from-dotenv\nDESIGNAGENT_LLM_PROVIDER=fake\n"), 0o644))
	t.Setenv("DESIGNAGENT_LLM_PROVIDER", "fake")

	saved := EnvFiles
	EnvFiles = []string{local, filepath.Join(dir, ".env")}
	t.Cleanup(func() { EnvFiles = saved })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.LLM.Model)
	assert.Equal(t, "fake", cfg.LLM.Provider)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearKeys(t)
	t.Setenv("DESIGNAGENT_LLM_PROVIDER", "fake")
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "llama" }},
		{"missing key", func(c *Config) { c.LLM.Provider = "openai" }},
		{"negative concurrency", func(c *Config) { c.LLM.MaxConcurrency = -1 }},
		{"unknown export backend", func(c *Config) { c.Export.Backend = "ftp" }},
		{"s3 without endpoint", func(c *Config) { c.Export.Backend = "s3" }},
		{"unknown store", func(c *Config) { c.Store.Backend = "redis" }},
		{"sqlite without dsn", func(c *Config) { c.Store.Backend = "sqlite" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, base.Validate())
}
