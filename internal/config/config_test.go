package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STUDYBUDDY_USER", "STUDYBUDDY_DB", "LOG_LEVEL", "LOG_FORMAT",
		"STUDYBUDDY_LLM_PROVIDER", "STUDYBUDDY_LLM_MODEL",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
		"STUDYBUDDY_EMBEDDING_PROVIDER", "REDIS_URL",
		"STUDYBUDDY_VECTOR_BACKEND", "PINECONE_API_KEY", "INDEX_NAME", "PINECONE_ENVIRONMENT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "default_user", cfg.UserID)
	assert.Equal(t, "sqlite", cfg.VectorStore.Backend)
	assert.Equal(t, "gemini", cfg.Embedding.Provider)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "studybuddy.yaml")
	data := `
user_id: alice
log:
  level: debug
  format: json
llm:
  provider: mock
  timeout: 30s
embedding:
  provider: mock
  cache_ttl: 1h
vector_store:
  backend: sqlite
  index_name: notes
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.UserID)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, time.Hour, cfg.Embedding.CacheTTL)
	assert.Equal(t, "notes", cfg.VectorStore.IndexName)
	// Unset keys keep their defaults.
	assert.Equal(t, "gemini-flash", cfg.LLM.Gemini.Model)
	require.NoError(t, cfg.Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user_id: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STUDYBUDDY_USER", "bob")
	t.Setenv("STUDYBUDDY_DB", "/tmp/sb.db")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("PINECONE_API_KEY", "p-key")
	t.Setenv("INDEX_NAME", "custom-index")
	t.Setenv("PINECONE_ENVIRONMENT", "us-central1-gcp")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("STUDYBUDDY_VECTOR_BACKEND", "pinecone")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := Default()
	ApplyEnv(cfg)

	assert.Equal(t, "bob", cfg.UserID)
	assert.Equal(t, "/tmp/sb.db", cfg.DBPath)
	assert.Equal(t, "g-key", cfg.LLM.Gemini.APIKey)
	assert.Equal(t, "g-key", cfg.Embedding.GeminiAPIKey)
	assert.Equal(t, "o-key", cfg.Embedding.OpenAIAPIKey)
	assert.Equal(t, "p-key", cfg.VectorStore.PineconeAPIKey)
	assert.Equal(t, "custom-index", cfg.VectorStore.IndexName)
	assert.Equal(t, "us-central1-gcp", cfg.VectorStore.Environment)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Embedding.RedisURL)
	assert.Equal(t, "pinecone", cfg.VectorStore.Backend)
	assert.Equal(t, "warn", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing gemini key",
			mutate:  func(*Config) {},
			wantErr: "llm:",
		},
		{
			name: "empty user",
			mutate: func(c *Config) {
				c.UserID = ""
			},
			wantErr: "user id",
		},
		{
			name: "embedding key missing",
			mutate: func(c *Config) {
				c.LLM.Provider = "mock"
			},
			wantErr: "embedding:",
		},
		{
			name: "pinecone without key",
			mutate: func(c *Config) {
				c.LLM.Provider = "mock"
				c.Embedding.Provider = "mock"
				c.VectorStore.Backend = "pinecone"
			},
			wantErr: "vector store:",
		},
		{
			name: "all mock",
			mutate: func(c *Config) {
				c.LLM.Provider = "mock"
				c.Embedding.Provider = "mock"
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveRoundTripOmitsKeys(t *testing.T) {
	clearEnv(t)

	cfg := Default()
	cfg.UserID = "carol"
	cfg.LLM.Gemini.APIKey = "secret"
	cfg.VectorStore.PineconeAPIKey = "secret-too"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, Save(path, cfg))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "carol", loaded.UserID)
	assert.Empty(t, loaded.LLM.Gemini.APIKey)
}

func TestUserConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	path, err := UserConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/studybuddy/config.yaml", path)
}

func TestLoadDefaultFallsBackToUserPath(t *testing.T) {
	clearEnv(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(t.TempDir())

	_, used, err := LoadDefault()
	require.NoError(t, err)
	assert.Empty(t, used)

	userPath := filepath.Join(xdg, "studybuddy", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(userPath), 0o755))
	require.NoError(t, os.WriteFile(userPath, []byte("user_id: dana\n"), 0o644))

	cfg, used, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, userPath, used)
	assert.Equal(t, "dana", cfg.UserID)

	require.NoError(t, os.WriteFile(FileName, []byte("user_id: erin\n"), 0o644))
	cfg, used, err = LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, FileName, used)
	assert.Equal(t, "erin", cfg.UserID)
}
