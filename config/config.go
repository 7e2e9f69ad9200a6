// Package config loads the TOML configuration shared by the demos and builds
// the components it describes: the checkpoint store, the search backend, the
// logger and the graph options.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the root configuration.
type Config struct {
	LLM        LLMConfig        `toml:"llm"`
	Search     SearchConfig     `toml:"search"`
	Graph      GraphConfig      `toml:"graph"`
	Checkpoint CheckpointConfig `toml:"checkpoint"`
	Log        LogConfig        `toml:"log"`
}

// LLMConfig contains model settings. Any OpenAI-compatible endpoint works.
type LLMConfig struct {
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url"`    // Custom API endpoint (OpenRouter, Ollama, LMStudio)
	APIKeyEnv   string  `toml:"api_key_env"` // Environment variable holding the key
	Temperature float64 `toml:"temperature"`
}

// SearchConfig selects the web search backend.
type SearchConfig struct {
	Provider   string `toml:"provider"` // tavily or brave
	APIKeyEnv  string `toml:"api_key_env"`
	MaxResults int    `toml:"max_results"`
}

// GraphConfig bounds graph runs.
type GraphConfig struct {
	MaxSteps        int      `toml:"max_steps"`
	NodeTimeout     Duration `toml:"node_timeout"`
	ToolConcurrency int      `toml:"tool_concurrency"`
}

// CheckpointConfig selects where thread state is persisted.
type CheckpointConfig struct {
	Backend string `toml:"backend"` // memory, file, redis, postgres or sqlite

	// Path is the directory of the file backend or the database file of sqlite.
	Path string `toml:"path"`

	// Addr, Password, DB and Prefix configure redis.
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`

	// DSN is the postgres connection string.
	DSN   string `toml:"dsn"`
	Table string `toml:"table"`

	TTL Duration `toml:"ttl"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// New creates a config with defaults.
func New() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Search: SearchConfig{
			Provider:   "tavily",
			MaxResults: 5,
		},
		Graph: GraphConfig{
			MaxSteps: 25,
		},
		Checkpoint: CheckpointConfig{
			Backend: "memory",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFile loads configuration from a TOML file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads path, or returns the defaults when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return New(), nil
	}
	return LoadFile(path)
}

// LoadEnv loads .env files into the process environment. Missing files are
// skipped; variables already set are kept.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks values that cannot be caught by decoding.
func (c *Config) Validate() error {
	switch c.Checkpoint.Backend {
	case "", "memory":
	case "file", "sqlite":
		if c.Checkpoint.Path == "" {
			return fmt.Errorf("checkpoint backend %s needs a path", c.Checkpoint.Backend)
		}
	case "redis":
		if c.Checkpoint.Addr == "" {
			return fmt.Errorf("checkpoint backend redis needs an addr")
		}
	case "postgres":
		if c.Checkpoint.DSN == "" {
			return fmt.Errorf("checkpoint backend postgres needs a dsn")
		}
	default:
		return fmt.Errorf("unknown checkpoint backend %q", c.Checkpoint.Backend)
	}

	switch c.Search.Provider {
	case "", "tavily", "brave":
	default:
		return fmt.Errorf("unknown search provider %q", c.Search.Provider)
	}

	if c.Graph.MaxSteps < 0 {
		return fmt.Errorf("graph.max_steps must not be negative")
	}
	return nil
}

// APIKey returns the model API key from the configured environment variable.
func (c *Config) APIKey() string {
	if c.LLM.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.LLM.APIKeyEnv)
}
