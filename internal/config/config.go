// Package config provides configuration loading and validation for the research analyzer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported provider names.
const (
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
	ProviderGoogle  = "google"
	ProviderSearXNG = "searxng"
)

// DefaultUserAgent is the browser-like identity sent with every page fetch.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config is the immutable runtime configuration. It is built once at startup
// and passed by value or pointer into constructors; nothing mutates it afterwards.
type Config struct {
	LLM         LLMConfig     `yaml:"llm"`
	Search      SearchConfig  `yaml:"search"`
	Harvest     HarvestConfig `yaml:"harvest"`
	Timeouts    TimeoutConfig `yaml:"timeouts"`
	Refine      RefineConfig  `yaml:"refine"`
	Output      OutputConfig  `yaml:"output"`
	Log         LogConfig     `yaml:"log"`
	Server      ServerConfig  `yaml:"server"`
	DatabaseURL string        `yaml:"database_url"`
}

// LLMConfig selects and configures the language model backend.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// SearchConfig selects and configures the search backend.
type SearchConfig struct {
	Provider        string        `yaml:"provider"`
	ResultsPerQuery int           `yaml:"results_per_query"`
	Google          GoogleConfig  `yaml:"google"`
	SearXNG         SearXNGConfig `yaml:"searxng"`
}

// GoogleConfig holds Custom Search credentials.
type GoogleConfig struct {
	APIKey string `yaml:"api_key"`
	CSEID  string `yaml:"cse_id"`
}

// SearXNGConfig points at a SearXNG instance.
type SearXNGConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// HarvestConfig tunes discovery pacing and the fetch pools.
type HarvestConfig struct {
	Concurrency    int           `yaml:"concurrency"`
	SearchInterval time.Duration `yaml:"search_interval"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	UserAgent      string        `yaml:"user_agent"`
	UseBrowser     bool          `yaml:"use_browser"`
	// PageCacheTTL is how long fetched pages are reused from the database.
	// Zero disables the cache.
	PageCacheTTL time.Duration `yaml:"page_cache_ttl"`
}

// TimeoutConfig bounds each analysis phase.
type TimeoutConfig struct {
	Plan     time.Duration `yaml:"plan"`
	Harvest  time.Duration `yaml:"harvest"`
	Insights time.Duration `yaml:"insights"`
}

// Refinement modes.
const (
	RefineNone    = ""
	RefineLLM     = "llm"
	RefineWebhook = "webhook"
)

// RefineConfig configures the optional narrative refinement step. An empty
// mode selects the webhook when a URL is set and nothing otherwise.
type RefineConfig struct {
	Mode    string        `yaml:"mode"`
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
	// RequestPath is where the analysis text is placed in the webhook body
	// and ResponsePath where the refined text is read back (gjson syntax).
	RequestPath  string `yaml:"request_path"`
	ResponsePath string `yaml:"response_path"`
}

// OutputConfig controls the JSON file sink.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a configuration with every tunable at its default value
// and no credentials.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider:    ProviderGemini,
			Model:       "gemini-2.5-flash",
			Temperature: 0.3,
		},
		Search: SearchConfig{
			Provider:        ProviderGoogle,
			ResultsPerQuery: 3,
			SearXNG:         SearXNGConfig{Timeout: 30 * time.Second},
		},
		Harvest: HarvestConfig{
			Concurrency:    8,
			SearchInterval: time.Second,
			FetchTimeout:   10 * time.Second,
			UserAgent:      DefaultUserAgent,
			PageCacheTTL:   24 * time.Hour,
		},
		Timeouts: TimeoutConfig{
			Plan:     time.Minute,
			Harvest:  5 * time.Minute,
			Insights: 2 * time.Minute,
		},
		Refine: RefineConfig{
			Timeout:      30 * time.Second,
			RequestPath:  "input",
			ResponsePath: "output",
		},
		Log:    LogConfig{Level: "info"},
		Server: ServerConfig{Port: 8080},
	}
}

// LoadConfig reads a YAML file over the defaults, then applies environment
// overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if !filepath.IsAbs(path) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
			path = filepath.Join(cwd, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	cfg.applyEnv()
	return &cfg, nil
}

// applyEnv overlays well-known environment variables. Credentials are only
// taken from the environment when the file left them empty.
func (c *Config) applyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case ProviderOpenAI:
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}

	if v := os.Getenv("SEARCH_PROVIDER"); v != "" {
		c.Search.Provider = v
	}
	if c.Search.Google.APIKey == "" {
		c.Search.Google.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if c.Search.Google.CSEID == "" {
		c.Search.Google.CSEID = os.Getenv("GOOGLE_CSE_ID")
	}
	if v := os.Getenv("SEARXNG_BASE_URL"); v != "" {
		c.Search.SearXNG.BaseURL = v
	}

	if v, err := strconv.Atoi(os.Getenv("HARVEST_CONCURRENCY")); err == nil {
		c.Harvest.Concurrency = v
	}
	if v, err := time.ParseDuration(os.Getenv("HARVEST_SEARCH_INTERVAL")); err == nil {
		c.Harvest.SearchInterval = v
	}
	if v, err := time.ParseDuration(os.Getenv("PAGE_CACHE_TTL")); err == nil {
		c.Harvest.PageCacheTTL = v
	}

	if v := os.Getenv("REFINE_MODE"); v != "" {
		c.Refine.Mode = v
	}
	if v := os.Getenv("REFINE_URL"); v != "" {
		c.Refine.URL = v
	}
	if v := os.Getenv("REFINE_TOKEN"); v != "" {
		c.Refine.Token = v
	}

	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
}

// Validate checks provider names, numeric ranges and that the chosen
// providers have the credentials they need.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("config error: unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("config error: llm api key is required for provider %q", c.LLM.Provider)
	}

	switch c.Search.Provider {
	case ProviderGoogle:
		if c.Search.Google.APIKey == "" || c.Search.Google.CSEID == "" {
			return fmt.Errorf("config error: google search needs both api_key and cse_id")
		}
	case ProviderSearXNG:
		if c.Search.SearXNG.BaseURL == "" {
			return fmt.Errorf("config error: searxng base_url is required")
		}
	default:
		return fmt.Errorf("config error: unknown search provider %q", c.Search.Provider)
	}

	if c.Search.ResultsPerQuery <= 0 {
		return fmt.Errorf("config error: 'results_per_query' must be positive")
	}
	if c.Harvest.Concurrency <= 0 {
		return fmt.Errorf("config error: 'concurrency' must be positive")
	}
	if c.Harvest.SearchInterval < 0 {
		return fmt.Errorf("config error: 'search_interval' must be non-negative")
	}
	if c.Harvest.PageCacheTTL < 0 {
		return fmt.Errorf("config error: 'page_cache_ttl' must be non-negative")
	}
	if c.Harvest.FetchTimeout <= 0 {
		return fmt.Errorf("config error: 'fetch_timeout' must be positive")
	}
	switch c.Refine.Mode {
	case RefineNone, RefineLLM:
	case RefineWebhook:
		if c.Refine.URL == "" {
			return fmt.Errorf("config error: refine url is required for webhook mode")
		}
	default:
		return fmt.Errorf("config error: unknown refine mode %q", c.Refine.Mode)
	}
	if c.Timeouts.Plan <= 0 || c.Timeouts.Harvest <= 0 || c.Timeouts.Insights <= 0 {
		return fmt.Errorf("config error: phase timeouts must be positive")
	}

	return nil
}

// EffectiveRefineMode resolves an empty mode against the configured URL.
func (c *Config) EffectiveRefineMode() string {
	if c.Refine.Mode == RefineNone && c.Refine.URL != "" {
		return RefineWebhook
	}
	return c.Refine.Mode
}
