// Package config loads application configuration from config.yaml and the
// ANTHILL_ environment, with defaults that work out of the box for local use.
package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sardarchitect/anthill/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Compute   ComputeConfig   `yaml:"compute" mapstructure:"compute"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ComputeConfig holds geometry compute server settings.
type ComputeConfig struct {
	URL            string  `yaml:"url" mapstructure:"url"`
	Token          string  `yaml:"token" mapstructure:"token"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst          int     `yaml:"burst" mapstructure:"burst"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// AnthropicConfig holds Anthropic API settings for the assistant.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxRounds int    `yaml:"max_rounds" mapstructure:"max_rounds"`
}

// AnalysisConfig configures classification and floor binning.
type AnalysisConfig struct {
	RulesPath   string  `yaml:"rules_path" mapstructure:"rules_path"`
	StoryHeight float64 `yaml:"story_height" mapstructure:"story_height"`
}

// BatchConfig configures batch scene loading.
type BatchConfig struct {
	MaxConcurrentScenes int `yaml:"max_concurrent_scenes" mapstructure:"max_concurrent_scenes"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ANTHILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secret-ish keys default to empty so AutomaticEnv can still
	// surface them through Unmarshal.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "anthill.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_scenes", 4)
	v.SetDefault("analysis.rules_path", "")
	v.SetDefault("analysis.story_height", 3.0)
	v.SetDefault("compute.url", "http://localhost:8081")
	v.SetDefault("compute.token", "")
	v.SetDefault("compute.timeout_secs", 120)
	v.SetDefault("compute.requests_per_sec", 2.0)
	v.SetDefault("compute.burst", 1)
	v.SetDefault("compute.max_retries", 3)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.max_rounds", 8)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields required by the given run mode. Modes map to
// command groups: "store" for anything that persists scenes, "serve" for the
// HTTP API, "compute" for definition solves, "ask" for the assistant, and
// "analyze" for pure in-process analysis.
func (c *Config) Validate(mode string) error {
	var problems []string

	// Bounds that hold in every mode.
	if c.Batch.MaxConcurrentScenes < 1 || c.Batch.MaxConcurrentScenes > 50 {
		problems = append(problems, "batch.max_concurrent_scenes must be between 1 and 50")
	}
	if c.Analysis.StoryHeight <= 0 {
		problems = append(problems, "analysis.story_height must be > 0")
	}

	switch mode {
	case "store":
		problems = append(problems, c.storeProblems()...)
	case "serve":
		problems = append(problems, c.storeProblems()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	case "compute":
		if c.Compute.URL == "" {
			problems = append(problems, "compute.url is required")
		}
	case "ask":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	case "analyze":
		// Nothing beyond the shared bounds.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) storeProblems() []string {
	var problems []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	return problems
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
