package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the analysis record database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SearchConfig holds team directory search index settings.
type SearchConfig struct {
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`
	Key        string `yaml:"key" mapstructure:"key"`
	TeamsIndex string `yaml:"teams_index" mapstructure:"teams_index"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// StorageConfig holds blob storage settings for generated documents.
type StorageConfig struct {
	AccountName   string `yaml:"account_name" mapstructure:"account_name"`
	AccountKey    string `yaml:"account_key" mapstructure:"account_key"`
	Endpoint      string `yaml:"endpoint" mapstructure:"endpoint"`
	Container     string `yaml:"container" mapstructure:"container"`
	LinkValidDays int    `yaml:"link_valid_days" mapstructure:"link_valid_days"`
}

// AnalysisConfig configures pipeline behavior.
type AnalysisConfig struct {
	MaxTeamsInPrompt  int `yaml:"max_teams_in_prompt" mapstructure:"max_teams_in_prompt"`
	MaxDescriptionLen int `yaml:"max_description_len" mapstructure:"max_description_len"`
}

// ServerConfig configures the HTTP server.
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
	v.SetEnvPrefix("OPPAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("search.teams_index", "teams-index")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("storage.container", "analysis-reports")
	v.SetDefault("storage.link_valid_days", 90)
	v.SetDefault("analysis.max_teams_in_prompt", 100)
	v.SetDefault("analysis.max_description_len", 12000)

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

// Validate checks that all settings required by the given mode are present.
// Missing settings are collected into a single error rather than failing one
// at a time, so a misconfigured deployment reports everything at once.
func (c *Config) Validate(mode string) error {
	var missing []string

	checkStore := func() {
		if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
			missing = append(missing, "store.driver must be sqlite or postgres")
		}
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
	}
	checkSearch := func() {
		if c.Search.Endpoint == "" {
			missing = append(missing, "search.endpoint is required")
		}
		if c.Search.Key == "" {
			missing = append(missing, "search.key is required")
		}
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
		checkStore()
	case "analyze":
		checkStore()
	case "seed", "teams":
		checkSearch()
	case "records":
		checkStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(missing, "; "))
	}
	return nil
}

// SearchConfigured reports whether the directory search service can be built.
func (c *Config) SearchConfigured() bool {
	return c.Search.Endpoint != "" && c.Search.Key != ""
}

// AnthropicConfigured reports whether the reasoning service can be built.
func (c *Config) AnthropicConfigured() bool {
	return c.Anthropic.Key != ""
}

// StorageConfigured reports whether the document store can be built.
func (c *Config) StorageConfigured() bool {
	return c.Storage.AccountName != "" && c.Storage.AccountKey != ""
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
