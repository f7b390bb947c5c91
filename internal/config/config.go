// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.policyq/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, model, temperature, max tokens, embedder
//   - Retrieval: top-K, similarity threshold, boilerplate patterns
//   - Session: history pair bound, summary preview length
//   - Storage: PostgreSQL connection (see storage.go)
//   - Server: HTTP listen address
//
// Security: sensitive values (passwords) are masked in MarshalJSON/String.
// Validation: fail-fast range checks in validation.go with sentinel errors
// for Go-idiomatic checking via errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTopK indicates the retrieval top-K is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-K")

	// ErrInvalidThreshold indicates the similarity threshold is out of range.
	ErrInvalidThreshold = errors.New("invalid similarity threshold")

	// ErrInvalidHistoryPairs indicates the history pair bound is out of range.
	ErrInvalidHistoryPairs = errors.New("invalid history pair bound")

	// ErrInvalidPreviewLength indicates the summary preview length is out of range.
	ErrInvalidPreviewLength = errors.New("invalid preview length")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderGoogleAI = "googleai"
)

const (
	// DefaultGeminiEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 outputs 3072 dimensions by default, but supports
	// truncation to 768 via OutputDimensionality; see retrieval.VectorDimension.
	DefaultGeminiEmbedderModel = "gemini-embedding-001"

	// DefaultTopK is the number of nearest-neighbor chunks retrieved per query.
	DefaultTopK = 5

	// DefaultSimilarityThreshold is the minimum cosine similarity a chunk
	// must reach to be included in the generation context.
	DefaultSimilarityThreshold = 0.5

	// DefaultHistoryPairs is how many prior question/answer pairs are
	// forwarded to the generation call for follow-up disambiguation.
	DefaultHistoryPairs = 2

	// DefaultPreviewLength is the rune length session summaries truncate
	// the first question to.
	DefaultPreviewLength = 30
)

// DefaultBoilerplatePatterns are handbook header/footer fragments stripped
// from retrieved chunk text before it reaches the generation prompt.
var DefaultBoilerplatePatterns = []string{
	"Your Health Your Finances Your Eligibility",
	"Your Health Your Finances",
	"Your Eligibility",
	"Your Health Your Family Your Perks",
	"EMPLOYEE HANDBOOK",
	"CONFIDENTIAL INFORMATION",
}

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// AI provider and model configuration
	Provider    string  `mapstructure:"provider" json:"provider"` // "gemini" (default) or "ollama"
	ModelName   string  `mapstructure:"model_name" json:"model_name"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Retrieval configuration
	EmbedderModel       string   `mapstructure:"embedder_model" json:"embedder_model"`
	TopK                int      `mapstructure:"top_k" json:"top_k"`
	SimilarityThreshold float32  `mapstructure:"similarity_threshold" json:"similarity_threshold"`
	BoilerplatePatterns []string `mapstructure:"boilerplate_patterns" json:"boilerplate_patterns"`

	// Session configuration
	HistoryPairs  int `mapstructure:"history_pairs" json:"history_pairs"`
	PreviewLength int `mapstructure:"preview_length" json:"preview_length"`

	// Storage configuration (see storage.go for connection helpers)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Server configuration
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".policyq")

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
		// A missing config file is not an error, defaults apply
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

	// DATABASE_URL takes precedence over individual postgres_* settings
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	// Validation is deferred to app.Setup: commands that only touch the
	// database (sessions list, version) must work without an API key.
	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults. Temperature and max_tokens are deliberately conservative:
	// policy answers should be grounded and short.
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("temperature", 0.3)
	viper.SetDefault("max_tokens", 500)

	// Ollama defaults
	viper.SetDefault("ollama_host", "http://localhost:11434")

	// Retrieval defaults
	viper.SetDefault("embedder_model", DefaultGeminiEmbedderModel)
	viper.SetDefault("top_k", DefaultTopK)
	viper.SetDefault("similarity_threshold", DefaultSimilarityThreshold)
	viper.SetDefault("boilerplate_patterns", DefaultBoilerplatePatterns)

	// Session defaults
	viper.SetDefault("history_pairs", DefaultHistoryPairs)
	viper.SetDefault("preview_length", DefaultPreviewLength)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "policyq")
	viper.SetDefault("postgres_password", "policyq_dev_password")
	viper.SetDefault("postgres_db_name", "policyq")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Server defaults
	viper.SetDefault("listen_addr", "127.0.0.1:3400")
}

// bindEnvVariables binds environment variable overrides explicitly.
// GEMINI_API_KEY is read directly by Genkit, not via Viper; validation
// checks its presence based on the selected provider.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime condition.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "POLICYQ_PROVIDER")
	mustBind("model_name", "POLICYQ_MODEL_NAME")
	mustBind("embedder_model", "POLICYQ_EMBEDDER_MODEL")
	mustBind("ollama_host", "POLICYQ_OLLAMA_HOST")
	mustBind("listen_addr", "POLICYQ_LISTEN_ADDR")
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks avoid accidental substring matches against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 chars or
// fewer are fully masked; longer ones show the first and last 2 characters
// for debug utility. This defends against accidental logging, not against
// compromised logs - rotate secrets in that case.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field
// masking. When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.ModelName
	default:
		return ProviderGoogleAI + "/" + c.ModelName
	}
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
