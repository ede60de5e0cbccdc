// Package config loads service settings from config.yaml, .env files and
// DESIGNAGENT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, with "." in the
// key replaced by "_" (llm.api_key -> DESIGNAGENT_LLM_API_KEY).
const EnvPrefix = "DESIGNAGENT"

// EnvFiles are loaded in order before the environment is read. Variables
// already set are never overridden, so earlier files win.
var EnvFiles = []string{".env.local", ".env"}

type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

type ServerConfig struct {
	Title             string        `mapstructure:"title" yaml:"title"`
	Description       string        `mapstructure:"description" yaml:"description"`
	Host              string        `mapstructure:"host" yaml:"host"`
	Port              int           `mapstructure:"port" yaml:"port"`
	CORSOrigins       []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// RunLogDir holds one JSONL trace per run; empty disables tracing.
	RunLogDir string `mapstructure:"run_log_dir" yaml:"run_log_dir"`
}

// Addr is host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type TemperatureConfig struct {
	Strategist float32 `mapstructure:"strategist" yaml:"strategist"`
	Ops        float32 `mapstructure:"ops" yaml:"ops"`
	Engineer   float32 `mapstructure:"engineer" yaml:"engineer"`
}

type LLMConfig struct {
	Provider          string            `mapstructure:"provider" yaml:"provider"`
	Model             string            `mapstructure:"model" yaml:"model"`
	APIKey            string            `mapstructure:"api_key" yaml:"api_key"`
	BaseURL           string            `mapstructure:"base_url" yaml:"base_url"`
	Temperature       TemperatureConfig `mapstructure:"temperature" yaml:"temperature"`
	RPS               float64           `mapstructure:"rps" yaml:"rps"`
	Burst             int               `mapstructure:"burst" yaml:"burst"`
	MaxConcurrency    int               `mapstructure:"max_concurrency" yaml:"max_concurrency"`
	RetryAttempts     int               `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryBaseDelay    time.Duration     `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
	ToolMaxIterations int               `mapstructure:"tool_max_iterations" yaml:"tool_max_iterations"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Region    string `mapstructure:"region" yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

type ExportConfig struct {
	Backend       string `mapstructure:"backend" yaml:"backend"`
	DefaultOutDir string `mapstructure:"default_out_dir" yaml:"default_out_dir"`
	// Root anchors relative output directories of the file backend.
	Root string   `mapstructure:"root" yaml:"root"`
	S3   S3Config `mapstructure:"s3" yaml:"s3"`
}

type StoreConfig struct {
	Backend   string `mapstructure:"backend" yaml:"backend"`
	DSN       string `mapstructure:"dsn" yaml:"dsn"`
	CacheSize int    `mapstructure:"cache_size" yaml:"cache_size"`
}

type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// SetDefaults registers every key with its default. Keys without a default
// are invisible to AutomaticEnv, so new settings must be added here.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.title", "UI Design Expert Agent API")
	v.SetDefault("server.description", "AI-Powered Design System Generator")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:3001",
		"http://127.0.0.1:3001",
	})
	v.SetDefault("server.read_header_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.run_log_dir", "tmp/run_logs")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature.strategist", 0.5)
	v.SetDefault("llm.temperature.ops", 0.2)
	v.SetDefault("llm.temperature.engineer", 0.3)
	v.SetDefault("llm.rps", 0)
	v.SetDefault("llm.burst", 1)
	v.SetDefault("llm.max_concurrency", 4)
	v.SetDefault("llm.retry_attempts", 1)
	v.SetDefault("llm.retry_base_delay", "500ms")
	v.SetDefault("llm.tool_max_iterations", 5)

	v.SetDefault("export.backend", "file")
	v.SetDefault("export.default_out_dir", "ui-agent-output")
	v.SetDefault("export.root", "")
	v.SetDefault("export.s3.endpoint", "")
	v.SetDefault("export.s3.region", "us-east-1")
	v.SetDefault("export.s3.access_key", "")
	v.SetDefault("export.s3.secret_key", "")
	v.SetDefault("export.s3.bucket", "designagent-exports")
	v.SetDefault("export.s3.use_ssl", false)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.cache_size", 256)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "designagent")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// NewViper returns a viper instance with defaults and environment binding.
// path names a config file; empty searches ./config.yaml.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Provider keys are also accepted under their usual names.
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "GROQ_API_KEY")
	return v
}

// Load reads the env files, the config file and the environment. A missing
// config.yaml is fine; a missing explicit path is not.
func Load(path string) (*Config, error) {
	v, err := ReadViper(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// ReadViper is Load without the final decode, for callers that bind
// command-line flags on top.
func ReadViper(path string) (*viper.Viper, error) {
	for _, f := range EnvFiles {
		_ = godotenv.Load(f)
	}
	v := NewViper(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// FromViper decodes and validates v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate rejects unknown providers and backends and settings that
// cannot work.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini", "openai", "groq":
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			return fmt.Errorf("llm.api_key is required for provider %q", c.LLM.Provider)
		}
	case "fake":
	default:
		return fmt.Errorf("llm.provider %q is not one of gemini, openai, groq, fake", c.LLM.Provider)
	}
	if c.LLM.MaxConcurrency < 0 {
		return fmt.Errorf("llm.max_concurrency must not be negative")
	}
	if c.LLM.RPS < 0 {
		return fmt.Errorf("llm.rps must not be negative")
	}

	switch strings.ToLower(c.Export.Backend) {
	case "", "file":
	case "s3":
		if c.Export.S3.Endpoint == "" || c.Export.S3.Bucket == "" {
			return fmt.Errorf("export.s3.endpoint and export.s3.bucket are required for the s3 backend")
		}
	default:
		return fmt.Errorf("export.backend %q is not one of file, s3", c.Export.Backend)
	}

	switch strings.ToLower(c.Store.Backend) {
	case "", "memory":
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("store.dsn is required for the %s backend", c.Store.Backend)
		}
	default:
		return fmt.Errorf("store.backend %q is not one of memory, sqlite, postgres", c.Store.Backend)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	return nil
}
