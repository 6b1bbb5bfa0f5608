// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.barnhand/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider selection (googleai/vertexai), chat model, embedder model
//   - Vector store: PostgreSQL + pgvector connection (see storage.go)
//   - Livestock source: read-only SQL Server connection (see storage.go)
//   - Serve: listen address, CORS origins
//   - Observability: optional OTLP trace export
//
// Sensitive fields (passwords) are masked in MarshalJSON and never logged.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation.
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrMissingProject indicates the Google Cloud project is not set.
	ErrMissingProject = errors.New("missing Google Cloud project")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidLivestockPort indicates the livestock source port is out of range.
	ErrInvalidLivestockPort = errors.New("invalid livestock source port")
)

// AI provider identifiers used in Config.Provider.
const (
	// ProviderGoogleAI uses the hosted Gemini API, authenticated with GEMINI_API_KEY.
	ProviderGoogleAI = "googleai"

	// ProviderVertexAI uses Vertex AI, authenticated with application default
	// credentials for the configured Google Cloud project.
	ProviderVertexAI = "vertexai"
)

const (
	// DefaultEmbedderModel produces 768-dimension vectors; the pgvector
	// schema in db/migrations depends on this dimension.
	DefaultEmbedderModel = "text-embedding-004"

	// DefaultModelName is the default chat completion model.
	DefaultModelName = "gemini-2.0-flash"
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// AI provider and model configuration
	Provider      string `mapstructure:"provider" json:"provider"`
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Vertex AI configuration (only used when provider is "vertexai")
	GoogleCloudProject  string `mapstructure:"google_cloud_project" json:"google_cloud_project"`
	GoogleCloudLocation string `mapstructure:"google_cloud_location" json:"google_cloud_location"`

	// Vector store (PostgreSQL + pgvector)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Livestock relational source (read-only SQL Server)
	LivestockHost     string `mapstructure:"livestock_host" json:"livestock_host"`
	LivestockPort     int    `mapstructure:"livestock_port" json:"livestock_port"`
	LivestockUser     string `mapstructure:"livestock_user" json:"livestock_user"`
	LivestockPassword string `mapstructure:"livestock_password" json:"livestock_password"` // SENSITIVE: masked in MarshalJSON
	LivestockDBName   string `mapstructure:"livestock_db_name" json:"livestock_db_name"`

	// Serve configuration
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`

	// Observability (optional OTLP trace export; disabled when endpoint is empty)
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
	Environment  string `mapstructure:"environment" json:"environment"`
	ServiceName  string `mapstructure:"service_name" json:"service_name"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".barnhand")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL, if set, overrides individual postgres_* settings
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults
	viper.SetDefault("provider", ProviderGoogleAI)
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("google_cloud_location", "us-central1")

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "barnhand")
	viper.SetDefault("postgres_password", "barnhand_dev_password")
	viper.SetDefault("postgres_db_name", "barnhand")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Livestock source defaults
	viper.SetDefault("livestock_host", "localhost")
	viper.SetDefault("livestock_port", 1433)

	// Serve defaults
	viper.SetDefault("listen_addr", "127.0.0.1:8080")
	viper.SetDefault("cors_origins", []string{"http://localhost:8080"})

	// Observability defaults (export disabled until an endpoint is configured)
	viper.SetDefault("otlp_endpoint", "")
	viper.SetDefault("environment", "dev")
	viper.SetDefault("service_name", "barnhand")
}

// bindEnvVariables binds environment variables explicitly.
//
// NOTE: GEMINI_API_KEY is read directly by the Genkit plugin, not via Viper;
// Validate() only checks its presence when the googleai provider is selected.
func bindEnvVariables() {
	// Hardcoded keys can't fail to bind; a panic here is a bug, not a runtime error
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "BARNHAND_PROVIDER")
	mustBind("model_name", "BARNHAND_MODEL_NAME")
	mustBind("embedder_model", "BARNHAND_EMBEDDER_MODEL")
	mustBind("google_cloud_project", "GOOGLE_CLOUD_PROJECT")
	mustBind("google_cloud_location", "GOOGLE_CLOUD_LOCATION")

	mustBind("livestock_host", "LIVESTOCK_DB_HOST")
	mustBind("livestock_port", "LIVESTOCK_DB_PORT")
	mustBind("livestock_user", "LIVESTOCK_DB_USER")
	mustBind("livestock_password", "LIVESTOCK_DB_PASSWORD")
	mustBind("livestock_db_name", "LIVESTOCK_DB_NAME")

	mustBind("listen_addr", "BARNHAND_LISTEN_ADDR")
	mustBind("cors_origins", "BARNHAND_CORS_ORIGINS")
	mustBind("otlp_endpoint", "BARNHAND_OTLP_ENDPOINT")
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 chars or
// fewer are fully masked to prevent substring matching; longer secrets keep
// the first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
// When adding new sensitive fields (passwords, API keys), mask them here.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config // Avoid infinite recursion
	masked := alias(c)
	masked.PostgresPassword = maskSecret(c.PostgresPassword)
	masked.LivestockPassword = maskSecret(c.LivestockPassword)
	return json.Marshal(masked)
}

// FullModelName returns the provider-qualified model name used with Genkit,
// e.g. "googleai/gemini-2.0-flash".
func (c *Config) FullModelName() string {
	return c.Provider + "/" + c.ModelName
}

// String returns the masked JSON representation for safe logging.
func (c Config) String() string {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("Config{marshal error: %v}", err)
	}
	return string(data)
}
