package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/datawisp/metadata-engine/pkg/llm"
	"github.com/datawisp/metadata-engine/pkg/models"
)

// Config holds all configuration for metadata-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Model provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Generation pipeline defaults
	Generation GenerationConfig `yaml:"generation"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"metadata"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"metadata_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// LLMConfig holds model provider settings.
type LLMConfig struct {
	Provider  string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint  string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model     string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o"`
	APIKey    string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	MaxTokens int    `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"2000"`
}

// ClientConfig converts to the llm package's config type.
func (c *LLMConfig) ClientConfig() *llm.Config {
	return &llm.Config{
		Provider:  c.Provider,
		Endpoint:  c.Endpoint,
		Model:     c.Model,
		APIKey:    c.APIKey,
		MaxTokens: c.MaxTokens,
	}
}

// GenerationConfig holds defaults for the description generation pipeline.
type GenerationConfig struct {
	// SampleRows is how many rows to sample into the prompt context.
	SampleRows int `yaml:"sample_rows" env:"GENERATION_SAMPLE_ROWS" env-default:"10"`

	// TopValues is how many most-frequent values to surface per column.
	TopValues int `yaml:"top_values" env:"GENERATION_TOP_VALUES" env-default:"5"`

	// Strategy orders tables within a dataset batch.
	Strategy string `yaml:"strategy" env:"GENERATION_STRATEGY" env-default:"NAIVE"`

	// DescriptionHandling controls how a draft merges with an existing
	// description on accept: append, prepend or replace.
	DescriptionHandling string `yaml:"description_handling" env:"GENERATION_DESCRIPTION_HANDLING" env-default:"append"`

	// DocumentationCSVURI points at a CSV mapping tables to documentation
	// URIs, used by documentation-aware batch strategies. Optional.
	DocumentationCSVURI string `yaml:"documentation_csv_uri" env:"GENERATION_DOCUMENTATION_CSV_URI" env-default:""`
}

// Strategy returns the parsed batch strategy.
func (c *GenerationConfig) ParsedStrategy() (models.Strategy, error) {
	return models.ParseStrategy(c.Strategy)
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Secrets (PGPASSWORD, LLM_API_KEY) must come from environment variables
// (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := models.ParseStrategy(c.Generation.Strategy); err != nil {
		return err
	}
	if c.Generation.DescriptionHandling != "" {
		opts := models.DefaultGenerationOptions()
		opts.DescriptionHandling = models.DescriptionHandling(c.Generation.DescriptionHandling)
		if err := opts.Validate(); err != nil {
			return err
		}
	}
	if c.Generation.SampleRows < 0 {
		return fmt.Errorf("sample_rows must not be negative")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
