// Package config holds missiond configuration: engine thresholds, lexicon
// location, storage paths, and logging switches. Configuration is YAML with
// defaults merged in, plus a small set of environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all missiond configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Engine  EngineConfig  `yaml:"engine"`
	Lexicon LexiconConfig `yaml:"lexicon"`
	Store   StoreConfig   `yaml:"store"`
	LLM     LLMConfig     `yaml:"llm"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig configures classification and readiness thresholds.
type EngineConfig struct {
	// MaxCandidates caps the ranked candidate list per message.
	MaxCandidates int `yaml:"max_candidates"`

	// TieSpread is the confidence gap under which the top two candidates
	// are treated as an ambiguous tie.
	TieSpread float64 `yaml:"tie_spread"`

	// SessionListCap bounds each recent-entity list in session context.
	SessionListCap int `yaml:"session_list_cap"`
}

// LexiconConfig configures the intent lexicon data file.
type LexiconConfig struct {
	// Path to a YAML lexicon override. Empty means embedded defaults only.
	Path string `yaml:"path"`

	// Watch enables hot reload of the lexicon file.
	Watch bool `yaml:"watch"`
}

// StoreConfig configures SQLite persistence.
type StoreConfig struct {
	// DatabasePath is the SQLite file for missions and session checkpoints.
	DatabasePath string `yaml:"database_path"`

	// CheckpointSessions persists session context across restarts when set.
	CheckpointSessions bool `yaml:"checkpoint_sessions"`
}

// LLMConfig configures the optional answerer for question turns.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "none" or "gemini"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"` // usually left empty; env wins
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "missiond",
		Version: "0.3.0",

		Engine: EngineConfig{
			MaxCandidates:  3,
			TieSpread:      0.10,
			SessionListCap: 5,
		},

		Lexicon: LexiconConfig{
			Path:  "",
			Watch: false,
		},

		Store: StoreConfig{
			DatabasePath:       "data/missiond.db",
			CheckpointSessions: false,
		},

		LLM: LLMConfig{
			Provider: "none",
			Model:    "gemini-2.0-flash",
		},

		Logging: LoggingConfig{
			Debug: false,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets the environment win over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MISSIOND_DEBUG"); v == "1" || v == "true" {
		c.Logging.Debug = true
	}
	if v := os.Getenv("MISSIOND_DB_PATH"); v != "" {
		c.Store.DatabasePath = v
	}
	if v := os.Getenv("MISSIOND_LEXICON"); v != "" {
		c.Lexicon.Path = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.APIKey = v
		if c.LLM.Provider == "none" {
			c.LLM.Provider = "gemini"
		}
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Engine.MaxCandidates < 1 {
		return fmt.Errorf("engine.max_candidates must be at least 1, got %d", c.Engine.MaxCandidates)
	}
	if c.Engine.TieSpread < 0 || c.Engine.TieSpread > 1 {
		return fmt.Errorf("engine.tie_spread must be in [0,1], got %f", c.Engine.TieSpread)
	}
	if c.Engine.SessionListCap < 1 {
		return fmt.Errorf("engine.session_list_cap must be at least 1, got %d", c.Engine.SessionListCap)
	}
	return nil
}
