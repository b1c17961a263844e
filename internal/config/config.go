package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the riskdocs server.
type Config struct {
	Server    ServerConfig
	Directory DatabaseConfig
	Redis     RedisConfig
	Extractor ExtractorConfig
	Jobs      JobsConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

// DatabaseConfig configures the control-plane (directory) database.
// Tenant databases are configured per tenant in the directory itself.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type ExtractorConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	OpenAI           OpenAIConfig
	Anthropic        AnthropicConfig
	Ollama           OllamaConfig
}

type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type AnthropicConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

// JobsConfig tunes the background job manager.
type JobsConfig struct {
	// HandlerTimeout bounds a single job's execution; on expiry the job is
	// forced to failed and the drain loop moves on.
	HandlerTimeout time.Duration
	// TerminalRetention is how long completed/failed jobs stay pollable.
	TerminalRetention time.Duration
}

var validProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"ollama":    true,
}

// Load reads configuration from environment variables and returns a
// validated Config. Returns a descriptive error if any required value is
// missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("RISKDOCS_PORT", 8080),
			Env:  envString("RISKDOCS_ENV", "development"),
		},
		Directory: DatabaseConfig{
			URL:             os.Getenv("DIRECTORY_DATABASE_URL"),
			MaxOpenConns:    envInt("DIRECTORY_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DIRECTORY_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DIRECTORY_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Extractor: ExtractorConfig{
			Provider:         os.Getenv("EXTRACTOR_PROVIDER"),
			InferenceTimeout: envDurationSecs("EXTRACTOR_TIMEOUT_SECS", 60*time.Second),
			OpenAI: OpenAIConfig{
				BaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-4o-mini"),
			},
			Anthropic: AnthropicConfig{
				BaseURL: envString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
				APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
				Model:   envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
		},
		Jobs: JobsConfig{
			HandlerTimeout:    envDurationSecs("JOB_HANDLER_TIMEOUT_SECS", 120*time.Second),
			TerminalRetention: envDuration("JOB_TERMINAL_RETENTION", 24*time.Hour),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Directory.URL == "" {
		return fmt.Errorf("DIRECTORY_DATABASE_URL is required")
	}
	if !strings.HasPrefix(c.Directory.URL, "postgres://") && !strings.HasPrefix(c.Directory.URL, "postgresql://") {
		return fmt.Errorf("DIRECTORY_DATABASE_URL must be a postgres:// URL, got %q", c.Directory.URL)
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Extractor.Provider == "" {
		return fmt.Errorf("EXTRACTOR_PROVIDER is required")
	}
	if !validProviders[c.Extractor.Provider] {
		return fmt.Errorf("EXTRACTOR_PROVIDER must be one of openai, anthropic, ollama; got %q", c.Extractor.Provider)
	}

	if c.Extractor.Provider == "openai" && c.Extractor.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when EXTRACTOR_PROVIDER is openai")
	}
	if c.Extractor.Provider == "anthropic" && c.Extractor.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when EXTRACTOR_PROVIDER is anthropic")
	}

	if c.Jobs.HandlerTimeout <= 0 {
		return fmt.Errorf("JOB_HANDLER_TIMEOUT_SECS must be positive")
	}
	if c.Jobs.TerminalRetention <= 0 {
		return fmt.Errorf("JOB_TERMINAL_RETENTION must be positive")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
