package model

import "time"

// Config holds the complete veracity configuration
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint" mapstructure:"endpoint"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	History  HistoryConfig  `yaml:"history" mapstructure:"history"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Checker  CheckerConfig  `yaml:"checker" mapstructure:"checker"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// EndpointConfig describes the remote checking service
type EndpointConfig struct {
	URL    string `yaml:"url" mapstructure:"url"`         // Check endpoint URL
	APIKey string `yaml:"api_key" mapstructure:"api_key"` // Optional x-api-key credential
}

// HTTPConfig controls outbound HTTP behavior
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// HistoryConfig controls the persisted check log
type HistoryConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`         // History file (default ~/.veracity/history.json)
	Capacity int    `yaml:"capacity" mapstructure:"capacity"` // Max retained entries
}

// CacheConfig controls server-side verdict memoization
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ServerConfig controls the checking service
type ServerConfig struct {
	Addr         string   `yaml:"addr" mapstructure:"addr"`
	APIKeys      []string `yaml:"api_keys" mapstructure:"api_keys"`             // Valid member credentials
	FreeRate     float64  `yaml:"free_rate" mapstructure:"free_rate"`           // Anonymous checks per second per client
	FreeBurst    int      `yaml:"free_burst" mapstructure:"free_burst"`
	MemberRate   float64  `yaml:"member_rate" mapstructure:"member_rate"`       // Authenticated checks per second per key
	MemberBurst  int      `yaml:"member_burst" mapstructure:"member_burst"`
	MaxSentences int      `yaml:"max_sentences" mapstructure:"max_sentences"`   // Per-request sentence cap
}

// CheckerConfig controls the LLM that produces verdicts
type CheckerConfig struct {
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"` // For OpenAI-compatible endpoints
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	HTML    bool `yaml:"html" mapstructure:"html"` // Emit annotated markup instead of the plain summary
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			URL: "http://localhost:5000/check-free",
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Veracity/0.1 (+https://github.com/ppiankov/veracity)",
			MaxBodyBytes: 2_000_000,
		},
		History: HistoryConfig{
			Path:     "", // Resolved to ~/.veracity/history.json by the CLI
			Capacity: 100,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // Resolved to ~/.veracity/cache by the CLI
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:         ":5000",
			FreeRate:     0.2,
			FreeBurst:    5,
			MemberRate:   2,
			MemberBurst:  20,
			MaxSentences: 50,
		},
		Checker: CheckerConfig{
			Model:     "gpt-4o-mini",
			Timeout:   60 * time.Second,
			MaxTokens: 2000,
		},
	}
}
