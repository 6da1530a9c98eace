// Package config loads application settings from an optional YAML file,
// an optional .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abhisek/studybuddy/internal/embedding"
	"github.com/abhisek/studybuddy/internal/llm"
	"github.com/abhisek/studybuddy/internal/vectorstore"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "studybuddy.yaml"

// LogConfig controls logger output.
type LogConfig struct {
	// Level is a zerolog level name: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "pretty" for console output, anything else for JSON.
	Format string `yaml:"format"`
}

// Config is the root application configuration.
type Config struct {
	// UserID scopes stored notes, quizzes and chat.
	UserID string `yaml:"user_id"`
	// DBPath is the SQLite file holding the event log and local vectors.
	// Empty resolves to the XDG data directory.
	DBPath string `yaml:"db_path"`

	Log         LogConfig          `yaml:"log"`
	LLM         llm.Config         `yaml:"llm"`
	Embedding   embedding.Config   `yaml:"embedding"`
	VectorStore vectorstore.Config `yaml:"vector_store"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		UserID:      "default_user",
		Log:         LogConfig{Level: "warn", Format: "pretty"},
		LLM:         llm.DefaultConfig(),
		Embedding:   embedding.DefaultConfig(),
		VectorStore: vectorstore.DefaultConfig(),
	}
}

// Load reads the YAML file at path over the defaults. A missing file
// yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	ApplyEnv(cfg)
	return cfg, nil
}

// LoadDefault loads .env when present, then the first config file found
// among ./studybuddy.yaml and the user config path. It returns the path
// that was used, or "" when running on defaults.
func LoadDefault() (*Config, string, error) {
	_ = godotenv.Load()

	if _, err := os.Stat(FileName); err == nil {
		cfg, err := Load(FileName)
		return cfg, FileName, err
	}

	userPath, err := UserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}

	cfg := Default()
	ApplyEnv(cfg)
	return cfg, "", nil
}

// LoadFile loads .env when present, then the given file. An empty path
// falls back to LoadDefault.
func LoadFile(path string) (*Config, string, error) {
	if path == "" {
		return LoadDefault()
	}
	_ = godotenv.Load()
	cfg, err := Load(path)
	return cfg, path, err
}

// Save writes cfg to path, creating directories as needed. API keys are
// never written.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// UserConfigPath returns $XDG_CONFIG_HOME/studybuddy/config.yaml, or
// ~/.config/studybuddy/config.yaml.
func UserConfigPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "studybuddy", "config.yaml"), nil
}

// ApplyEnv overrides cfg from environment variables.
func ApplyEnv(cfg *Config) {
	llm.ApplyEnv(&cfg.LLM)

	setFromEnv(&cfg.UserID, "STUDYBUDDY_USER")
	setFromEnv(&cfg.DBPath, "STUDYBUDDY_DB")
	setFromEnv(&cfg.Log.Level, "LOG_LEVEL")
	setFromEnv(&cfg.Log.Format, "LOG_FORMAT")

	setFromEnv(&cfg.Embedding.Provider, "STUDYBUDDY_EMBEDDING_PROVIDER")
	setFromEnv(&cfg.Embedding.GeminiAPIKey, "GEMINI_API_KEY")
	setFromEnv(&cfg.Embedding.OpenAIAPIKey, "OPENAI_API_KEY")
	setFromEnv(&cfg.Embedding.OpenAIBase, "OPENAI_BASE_URL")
	setFromEnv(&cfg.Embedding.RedisURL, "REDIS_URL")

	setFromEnv(&cfg.VectorStore.Backend, "STUDYBUDDY_VECTOR_BACKEND")
	setFromEnv(&cfg.VectorStore.PineconeAPIKey, "PINECONE_API_KEY")
	setFromEnv(&cfg.VectorStore.IndexName, "INDEX_NAME")
	setFromEnv(&cfg.VectorStore.Environment, "PINECONE_ENVIRONMENT")
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that every selected backend has its credentials.
func (c *Config) Validate() error {
	if c.UserID == "" {
		return errors.New("user id must not be empty")
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Embedding.Validate(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := c.VectorStore.Validate(); err != nil {
		return fmt.Errorf("vector store: %w", err)
	}
	return nil
}
