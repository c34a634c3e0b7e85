// Package config loads foreman settings from flags, FOREMAN_* environment
// variables, an optional foreman.yaml and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/aretw0/foreman/pkg/domain"
)

// EnvPrefix prefixes every environment override, e.g. FOREMAN_RUN_STEP_LIMIT.
const EnvPrefix = "FOREMAN"

// Worker kinds.
const (
	KindAgent   = "agent"
	KindProcess = "process"
)

// Built-in tool names usable in a worker's tools list.
const (
	ToolSearch = "tavily_search"
	ToolScrape = "scrape_webpages"
	ToolFeed   = "read_feed"
)

// Config holds all configuration for foreman.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Run      RunConfig      `mapstructure:"run"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Search   SearchConfig   `mapstructure:"search"`
	Recorder RecorderConfig `mapstructure:"recorder"`
	Tools    ToolsConfig    `mapstructure:"tools"`
	Workers  []WorkerConfig `mapstructure:"workers"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RunConfig holds per-run limits.
type RunConfig struct {
	StepLimit         int           `mapstructure:"step_limit"`
	FailurePolicy     string        `mapstructure:"failure_policy"`
	CapabilityTimeout time.Duration `mapstructure:"capability_timeout"`
	EventBuffer       int           `mapstructure:"event_buffer"`
}

// LLMConfig selects the model provider.
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	// Rationale asks the supervisor model to explain each routing decision.
	Rationale bool `mapstructure:"rationale"`
}

// SearchConfig holds the web search credentials.
type SearchConfig struct {
	APIKey     string `mapstructure:"api_key"`
	MaxResults int    `mapstructure:"max_results"`
}

// RecorderConfig selects where run records are kept.
type RecorderConfig struct {
	Backend   string        `mapstructure:"backend"`
	RedisAddr string        `mapstructure:"redis_addr"`
	SQLite    string        `mapstructure:"sqlite_path"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// ToolsConfig points at the allow-listed process tools.
type ToolsConfig struct {
	File string `mapstructure:"file"`
}

// WorkerConfig declares one team member.
//
// An agent worker is a tool-calling model whose Tools name built-in tools or
// entries of the tools file. A process worker runs the tools-file entry named
// Command.
type WorkerConfig struct {
	Name    string   `mapstructure:"name"`
	Kind    string   `mapstructure:"kind"`
	Prompt  string   `mapstructure:"prompt"`
	Tools   []string `mapstructure:"tools"`
	Command string   `mapstructure:"command"`
}

// DefaultWorkers is the research team: a web searcher and a page scraper.
func DefaultWorkers() []WorkerConfig {
	return []WorkerConfig{
		{Name: "search", Kind: KindAgent, Tools: []string{ToolSearch}},
		{Name: "web_scraper", Kind: KindAgent, Tools: []string{ToolScrape}},
	}
}

// New returns a viper instance with defaults and environment bindings.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider-native variable names are honoured as fallbacks.
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("search.api_key", EnvPrefix+"_SEARCH_API_KEY", "TAVILY_API_KEY")
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("run.step_limit", domain.DefaultStepLimit)
	v.SetDefault("run.failure_policy", string(domain.PolicyFail))
	v.SetDefault("run.capability_timeout", "0s")
	v.SetDefault("run.event_buffer", 1)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.rationale", false)

	v.SetDefault("search.api_key", "")
	v.SetDefault("search.max_results", 5)

	v.SetDefault("recorder.backend", "memory")
	v.SetDefault("recorder.redis_addr", "localhost:6379")
	v.SetDefault("recorder.sqlite_path", ".foreman/runs.db")
	v.SetDefault("recorder.ttl", "24h")

	v.SetDefault("tools.file", "tools.yaml")
}

// Load reads .env files into the environment, then the config file, and
// decodes the result. An empty path searches for foreman.yaml in the working
// directory; a missing file is not an error in that case.
func Load(v *viper.Viper, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("foreman")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if len(cfg.Workers) == 0 {
		cfg.Workers = DefaultWorkers()
	}
	for i := range cfg.Workers {
		if cfg.Workers[i].Kind == "" {
			cfg.Workers[i].Kind = KindAgent
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at team construction.
func (c *Config) Validate() error {
	if c.Run.StepLimit <= 0 {
		return fmt.Errorf("run.step_limit must be positive, got %d", c.Run.StepLimit)
	}
	if c.Run.EventBuffer < 1 {
		return fmt.Errorf("run.event_buffer must be at least 1, got %d", c.Run.EventBuffer)
	}
	if _, err := c.FailurePolicy(); err != nil {
		return err
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	switch c.Recorder.Backend {
	case "memory", "redis", "sqlite", "none":
	default:
		return fmt.Errorf("unknown recorder.backend %q", c.Recorder.Backend)
	}
	for _, w := range c.Workers {
		switch w.Kind {
		case KindAgent:
		case KindProcess:
			if w.Command == "" {
				return fmt.Errorf("process worker %q needs a command", w.Name)
			}
		default:
			return fmt.Errorf("worker %q has unknown kind %q", w.Name, w.Kind)
		}
	}
	return nil
}

// FailurePolicy parses run.failure_policy.
func (c *Config) FailurePolicy() (domain.FailurePolicy, error) {
	p, err := domain.ParseFailurePolicy(c.Run.FailurePolicy)
	if err != nil {
		return "", fmt.Errorf("run.failure_policy: %w", err)
	}
	return p, nil
}
