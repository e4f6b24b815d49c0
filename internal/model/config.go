package model

import "time"

// Config is the full application configuration
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Miners     MinersConfig     `yaml:"miners" mapstructure:"miners"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	HTTP       HTTPConfig       `yaml:"http" mapstructure:"http"`
}

// StoreConfig configures the dual-backend job store
type StoreConfig struct {
	// Dir is the root directory for the durable store (job files,
	// audit logs, evidence bundles).
	Dir string `yaml:"dir" mapstructure:"dir"`

	// Primary selects the fast store backend: "memory" or "redis"
	Primary string `yaml:"primary" mapstructure:"primary"`

	// PrimaryTTL bounds how long a job stays in the fast store
	PrimaryTTL time.Duration `yaml:"primary_ttl" mapstructure:"primary_ttl"`

	// RedisURL is used when Primary is "redis"
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
}

// MinersConfig configures the miner pool
type MinersConfig struct {
	// Provider selects the pool implementation: "mock", "remote" or "llm"
	Provider string `yaml:"provider" mapstructure:"provider"`

	// Count is the mock pool size
	Count int `yaml:"count" mapstructure:"count"`

	// Seed makes the mock pool deterministic
	Seed int64 `yaml:"seed" mapstructure:"seed"`

	// Endpoints are remote miner URLs (Provider "remote")
	Endpoints []string `yaml:"endpoints" mapstructure:"endpoints"`

	// RequestsPerSecond / Burst rate-limit dispatch per endpoint
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// ValidationConfig configures the per-claim fan-out race
type ValidationConfig struct {
	// Quorum is the response count that stops waiting early
	Quorum int `yaml:"quorum" mapstructure:"quorum"`

	// Timeout is the per-claim deadline for the fan-out race
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ServerConfig configures the HTTP boundary
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`

	// KeepaliveInterval is the idle window after which subscribers
	// receive a keepalive event
	KeepaliveInterval time.Duration `yaml:"keepalive_interval" mapstructure:"keepalive_interval"`
}

// LLMConfig configures the LLM-backed miner adapter
type LLMConfig struct {
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// HTTPConfig configures outbound HTTP (ingest fetcher, remote miners)
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Dir:        defaultStoreDir(),
			Primary:    "memory",
			PrimaryTTL: 24 * time.Hour,
			RedisURL:   "redis://localhost:6379/0",
		},
		Miners: MinersConfig{
			Provider:          "mock",
			Count:             5,
			Seed:              1,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Validation: ValidationConfig{
			Quorum:  3,
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			KeepaliveInterval: 30 * time.Second,
		},
		LLM: LLMConfig{
			Model:     "",
			Timeout:   30,
			MaxTokens: 1000,
		},
		HTTP: HTTPConfig{
			Timeout:      2 * time.Minute,
			UserAgent:    "XeaOracle/0.1 (+https://github.com/xealabs/xea-oracle)",
			MaxBodyBytes: 2_000_000,
		},
	}
}

func defaultStoreDir() string {
	return ".xea-oracle/data"
}
