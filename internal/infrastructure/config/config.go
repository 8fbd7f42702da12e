package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
	Transpiler TranspilerConfig
	Registry   RegistryConfig
	Sandbox    SandboxConfig
	Preview    PreviewConfig
	Projects   ProjectsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string   `envconfig:"PORT" default:"8000"`
	Host           string   `envconfig:"HOST" default:"0.0.0.0"`
	AllowedOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// TranspilerConfig selects and tunes the transpiler backend.
type TranspilerConfig struct {
	// Backend is "esbuild" (in-process) or "remote"
	Backend string        `envconfig:"TRANSPILER_BACKEND" default:"esbuild"`
	URL     string        `envconfig:"TRANSPILER_URL"`
	Target  string        `envconfig:"TRANSPILER_TARGET" default:"es2017"`
	Timeout time.Duration `envconfig:"TRANSPILER_TIMEOUT" default:"10s"`
}

// RegistryConfig configures the remote package registry.
type RegistryConfig struct {
	Enabled     bool          `envconfig:"REGISTRY_ENABLED" default:"true"`
	URL         string        `envconfig:"REGISTRY_URL" default:"https://unpkg.com"`
	CacheSize   int           `envconfig:"REGISTRY_CACHE_SIZE" default:"256"`
	Concurrency int           `envconfig:"REGISTRY_CONCURRENCY" default:"4"`
	RPS         float64       `envconfig:"REGISTRY_RPS" default:"10"`
	MaxRetries  int           `envconfig:"REGISTRY_MAX_RETRIES" default:"2"`
	MaxBytes    int           `envconfig:"REGISTRY_MAX_BYTES" default:"5242880"`
	Timeout     time.Duration `envconfig:"REGISTRY_TIMEOUT" default:"15s"`
}

// SandboxConfig configures the headless sandbox host.
type SandboxConfig struct {
	Enabled bool `envconfig:"SANDBOX_ENABLED" default:"true"`
	// Timeout bounds each sandbox task; 0 means none
	Timeout      time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"0s"`
	MaxCallStack int           `envconfig:"SANDBOX_MAX_CALL_STACK" default:"1024"`
}

// PreviewConfig configures document assembly.
type PreviewConfig struct {
	HostLibraries []string `envconfig:"PREVIEW_HOST_LIBRARIES" default:"https://unpkg.com/react@18/umd/react.development.js,https://unpkg.com/react-dom@18/umd/react-dom.development.js"`
	// Relay makes unframed previews beacon console output to the API
	Relay bool `envconfig:"PREVIEW_RELAY" default:"true"`
}

// ProjectsConfig bounds in-memory projects.
type ProjectsConfig struct {
	MaxProjects   int           `envconfig:"MAX_PROJECTS" default:"100"`
	IdleTTL       time.Duration `envconfig:"PROJECT_IDLE_TTL" default:"1h"`
	TemplateDir   string        `envconfig:"PROJECT_TEMPLATE_DIR"`
	MaxLogRecords int           `envconfig:"PROJECT_MAX_LOG_RECORDS" default:"1000"`
	TypingChars   int           `envconfig:"TYPING_CHARS_PER_TICK" default:"5"`
	TypingTick    time.Duration `envconfig:"TYPING_TICK" default:"10ms"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithEnvFiles loads .env style files into the environment, without
// overriding variables that are already set, then calls Load. Missing
// files are skipped.
func LoadWithEnvFiles(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return Load()
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Transpiler.Backend {
	case "esbuild":
	case "remote":
		if c.Transpiler.URL == "" {
			return fmt.Errorf("TRANSPILER_URL is required for the remote transpiler backend")
		}
	default:
		return fmt.Errorf("unknown transpiler backend %q", c.Transpiler.Backend)
	}
	if c.Sandbox.Timeout < 0 {
		return fmt.Errorf("SANDBOX_TIMEOUT must not be negative")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8000",
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Transpiler: TranspilerConfig{
			Backend: "esbuild",
			Target:  "es2017",
			Timeout: 10 * time.Second,
		},
		Registry: RegistryConfig{
			Enabled:     true,
			URL:         "https://unpkg.com",
			CacheSize:   256,
			Concurrency: 4,
			RPS:         10,
			MaxRetries:  2,
			MaxBytes:    5 * 1024 * 1024,
			Timeout:     15 * time.Second,
		},
		Sandbox: SandboxConfig{
			Enabled:      true,
			MaxCallStack: 1024,
		},
		Preview: PreviewConfig{
			HostLibraries: []string{
				"https://unpkg.com/react@18/umd/react.development.js",
				"https://unpkg.com/react-dom@18/umd/react-dom.development.js",
			},
			Relay: true,
		},
		Projects: ProjectsConfig{
			MaxProjects:   100,
			IdleTTL:       time.Hour,
			MaxLogRecords: 1000,
			TypingChars:   5,
			TypingTick:    10 * time.Millisecond,
		},
	}
}
