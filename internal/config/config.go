package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override, e.g. FITBUDDY_AI_PROVIDER
const EnvPrefix = "FITBUDDY"

// Config holds application configuration
type Config struct {
	DataDir      string             `mapstructure:"data_dir" validate:"required"`
	Debug        bool               `mapstructure:"debug"`
	Log          LogConfig          `mapstructure:"log"`
	Storage      StorageConfig      `mapstructure:"storage"`
	AI           AIConfig           `mapstructure:"ai"`
	Notification NotificationConfig `mapstructure:"notification"`
	Server       ServerConfig       `mapstructure:"server"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	OTel         OTelConfig         `mapstructure:"otel"`

	// Path is the config file that was read, empty when none was found
	Path string `mapstructure:"-"`
}

// LogConfig selects the log encoder and an optional file sink
type LogConfig struct {
	Format string `mapstructure:"format" validate:"oneof=json console"`
	File   string `mapstructure:"file"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Driver   string `mapstructure:"driver" validate:"oneof=file sqlite postgres redis memory"`
	DSN      string `mapstructure:"dsn" validate:"required_if=Driver postgres"`
	RedisURL string `mapstructure:"redis_url" validate:"required_if=Driver redis"`
}

// AIConfig configures the AI collaborator
type AIConfig struct {
	Provider  string        `mapstructure:"provider" validate:"oneof=openai gemini"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	BaseURL   string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RateLimit string        `mapstructure:"rate_limit"`
}

// Enabled reports whether an API key is available for the provider
func (a AIConfig) Enabled() bool {
	return a.APIKey != ""
}

// ProviderConfig returns the string map consumed by the provider registry
func (a AIConfig) ProviderConfig(debug bool) map[string]string {
	cfg := map[string]string{
		"api_key": a.APIKey,
		"timeout": a.Timeout.String(),
	}
	if a.Model != "" {
		cfg["model"] = a.Model
	}
	if a.BaseURL != "" {
		cfg["base_url"] = a.BaseURL
	}
	if debug {
		cfg["debug"] = "true"
	}
	return cfg
}

// NotificationConfig configures the auto-clear delay of notifications
type NotificationConfig struct {
	Duration time.Duration `mapstructure:"duration" validate:"gt=0"`
}

// ServerConfig configures the local API
type ServerConfig struct {
	Addr           string   `mapstructure:"addr" validate:"required,hostname_port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MetricsConfig toggles the prometheus endpoint
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// OTelConfig toggles OpenTelemetry tracing
type OTelConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

var validate = validator.New()

// DefaultDataDir returns the per-user data directory, falling back to ./.fitbuddy
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "fitbuddy")
	}
	return ".fitbuddy"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("debug", false)
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.redis_url", "")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.rate_limit", "30-H")
	v.SetDefault("notification.duration", 3*time.Second)
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "")
}

// Load reads configuration from defaults, the optional YAML file at path and
// FITBUDDY_* environment variables, in increasing precedence. An empty path
// looks for fitbuddy.yaml in the working directory and the data directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fitbuddy")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDataDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	cfg.Path = v.ConfigFileUsed()

	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = providerKeyFromEnv(cfg.AI.Provider)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}
