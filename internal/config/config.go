package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gobahrain/gobahrain/internal/domain"
)

// Vector index drivers.
const (
	DriverPinecone = "pinecone"
	DriverPGVector = "pgvector"
)

// Config holds the gobahrain API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Vector   VectorConfig   `yaml:"vector"`
	Database DatabaseConfig `yaml:"database"`
	Budget   BudgetConfig   `yaml:"budget"`
	Plan     PlanConfig     `yaml:"plan"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// OpenAIConfig holds embedding and chat completion settings for an OpenAI-compatible API.
type OpenAIConfig struct {
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	EmbeddingModel      string `yaml:"embedding_model"`
	EmbeddingDimensions int    `yaml:"embedding_dimensions"` // 0 = model default
	ChatModel           string `yaml:"chat_model"`
	TimeoutSec          int    `yaml:"timeout_sec"`
}

// Timeout returns the provider timeout.
func (c OpenAIConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// VectorConfig selects and configures the vector index.
type VectorConfig struct {
	Driver     string `yaml:"driver"` // pinecone, pgvector (default: pinecone)
	APIKey     string `yaml:"api_key"`
	Host       string `yaml:"host"`
	Namespace  string `yaml:"namespace"`
	MaxTopK    int    `yaml:"max_top_k"`
	TimeoutSec int    `yaml:"timeout_sec"`
	PGDSN      string `yaml:"pg_dsn"`
	PGTable    string `yaml:"pg_table"`
}

// Timeout returns the index timeout.
func (c VectorConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// DatabaseConfig holds the relational gateway connection. An empty DSN disables it.
type DatabaseConfig struct {
	DSN               string `yaml:"dsn"`
	MaxConns          int32  `yaml:"max_conns"`
	ConnectTimeoutSec int    `yaml:"connect_timeout_sec"`
}

// Enabled reports whether the relational gateway is configured.
func (c DatabaseConfig) Enabled() bool { return c.DSN != "" }

// BudgetConfig holds token budget settings. Counters persist to Redis/Valkey when Addrs is set.
type BudgetConfig struct {
	Addrs             []string `yaml:"addrs"`
	Password          string   `yaml:"password"`
	DailyTokenLimit   int64    `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64    `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string   `yaml:"action"`              // "reject" | "warn" (default)
	ReadinessTimeout  int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether any limit is set.
func (c BudgetConfig) Enabled() bool { return c.DailyTokenLimit > 0 || c.MonthlyTokenLimit > 0 }

// Persistent reports whether counters are stored outside the process.
func (c BudgetConfig) Persistent() bool { return len(c.Addrs) > 0 }

// PlanConfig holds day-plan settings.
type PlanConfig struct {
	// StrictValidation drops plan items that do not match a candidate.
	StrictValidation bool `yaml:"strict_validation"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("%w: read %s: %w", domain.ErrConfig, configPath, err)
	}

	return Parse(data)
}

// Parse expands environment references in data, unmarshals it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse: %w", domain.ErrConfig, err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from the given files (default .env) without overriding the
// process environment. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if fileExists(p) {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("%w: load dotenv: %w", domain.ErrConfig, err)
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// a day plan is one long completion
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if c.OpenAI.TimeoutSec <= 0 {
		c.OpenAI.TimeoutSec = 30
	}
	if c.Vector.Driver == "" {
		c.Vector.Driver = DriverPinecone
	}
	if c.Vector.MaxTopK <= 0 {
		c.Vector.MaxTopK = 100
	}
	if c.Vector.TimeoutSec <= 0 {
		c.Vector.TimeoutSec = 30
	}
	if c.Vector.PGTable == "" {
		c.Vector.PGTable = "embeddings"
	}
	if c.Database.ConnectTimeoutSec <= 0 {
		c.Database.ConnectTimeoutSec = 10
	}
	if c.Budget.Action == "" {
		c.Budget.Action = "warn"
	}
	if c.Budget.ReadinessTimeout <= 0 {
		c.Budget.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	switch c.Vector.Driver {
	case DriverPinecone:
		if c.Vector.Host == "" || c.Vector.APIKey == "" {
			return fmt.Errorf("vector.host and vector.api_key are required for driver %q", DriverPinecone)
		}
	case DriverPGVector:
		if c.Vector.PGDSN == "" {
			return fmt.Errorf("vector.pg_dsn is required for driver %q", DriverPGVector)
		}
	default:
		return fmt.Errorf("vector.driver must be %q or %q, got %q", DriverPinecone, DriverPGVector, c.Vector.Driver)
	}
	switch c.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("budget.action must be \"warn\" or \"reject\", got %q", c.Budget.Action)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
