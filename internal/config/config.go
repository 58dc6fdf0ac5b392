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
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Backend    BackendConfig    `yaml:"backend" mapstructure:"backend"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	SerpAPI    SerpAPIConfig    `yaml:"serpapi" mapstructure:"serpapi"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	OCR        OCRConfig        `yaml:"ocr" mapstructure:"ocr"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// BackendConfig selects and tunes the language-model backend used for
// query generation and stakeholder extraction.
type BackendConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RetryAttempts  int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMS int    `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// GoogleConfig holds Google Custom Search credentials.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	CX      string `yaml:"cx" mapstructure:"cx"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SerpAPIConfig holds SerpAPI credentials.
type SerpAPIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// FirecrawlConfig holds Firecrawl API settings (fallback only).
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SearchConfig configures query generation and the search fan-out.
type SearchConfig struct {
	QueryCount      int      `yaml:"query_count" mapstructure:"query_count"`
	ResultsPerQuery int      `yaml:"results_per_query" mapstructure:"results_per_query"`
	TimeoutSecs     int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Providers       []string `yaml:"providers" mapstructure:"providers"`
	RatePerSec      float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// FetchConfig configures the two-tier page fetcher.
type FetchConfig struct {
	StaticTimeoutSecs int          `yaml:"static_timeout_secs" mapstructure:"static_timeout_secs"`
	MinBodyChars      int          `yaml:"min_body_chars" mapstructure:"min_body_chars"`
	UserAgent         string       `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes      int64        `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	Render            RenderConfig `yaml:"render" mapstructure:"render"`
}

// RenderConfig configures the headless browser tier.
type RenderConfig struct {
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	RemoteURL      string `yaml:"remote_url" mapstructure:"remote_url"`
	NavTimeoutSecs int    `yaml:"nav_timeout_secs" mapstructure:"nav_timeout_secs"`
	SettleMS       int    `yaml:"settle_ms" mapstructure:"settle_ms"`
}

// ExtractConfig configures chunking and per-page extraction.
type ExtractConfig struct {
	ChunkMaxChars       int      `yaml:"chunk_max_chars" mapstructure:"chunk_max_chars"`
	ChunkTimeoutSecs    int      `yaml:"chunk_timeout_secs" mapstructure:"chunk_timeout_secs"`
	MaxConcurrentChunks int      `yaml:"max_concurrent_chunks" mapstructure:"max_concurrent_chunks"`
	MaxConcurrentPages  int      `yaml:"max_concurrent_pages" mapstructure:"max_concurrent_pages"`
	SocialDomains       []string `yaml:"social_domains" mapstructure:"social_domains"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_key" mapstructure:"mistral_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
}

// ServerConfig configures the HTTP ingress server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB int64    `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
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
	v.SetEnvPrefix("STAKEHOLDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.temperature", 0.0)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("backend.provider", "anthropic")
	v.SetDefault("backend.timeout_secs", 120)
	v.SetDefault("backend.retry_attempts", 3)
	v.SetDefault("backend.retry_backoff_ms", 500)
	v.SetDefault("google.base_url", "https://customsearch.googleapis.com/")
	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("search.query_count", 3)
	v.SetDefault("search.results_per_query", 3)
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("search.providers", []string{"google", "serpapi"})
	v.SetDefault("search.rate_per_sec", 2.0)
	v.SetDefault("fetch.static_timeout_secs", 15)
	v.SetDefault("fetch.min_body_chars", 500)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0")
	v.SetDefault("fetch.max_body_bytes", 10<<20)
	v.SetDefault("fetch.render.enabled", true)
	v.SetDefault("fetch.render.nav_timeout_secs", 30)
	v.SetDefault("fetch.render.settle_ms", 3000)
	v.SetDefault("extract.chunk_max_chars", 8000)
	v.SetDefault("extract.chunk_timeout_secs", 180)
	v.SetDefault("extract.max_concurrent_chunks", 4)
	v.SetDefault("extract.max_concurrent_pages", 5)
	v.SetDefault("extract.social_domains", []string{"twitter.com", "linkedin.com", "facebook.com"})
	v.SetDefault("ocr.provider", "pdfcpu")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")

	// Keys with no default are invisible to AutomaticEnv during Unmarshal.
	for _, key := range []string{
		"anthropic.key", "perplexity.key", "google.key", "google.cx",
		"serpapi.key", "jina.key", "firecrawl.key", "ocr.mistral_key",
		"fetch.render.remote_url",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

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

// Validate checks that the settings required by the given mode are present.
// Modes: "run" and "serve" need a backend and a search provider; "signals"
// needs only the fetch settings.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "run", "serve":
		errs = append(errs, c.validateBackend()...)
		errs = append(errs, c.validateSearch()...)
		if mode == "serve" && c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "signals":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Fetch.MinBodyChars < 0 {
		errs = append(errs, "fetch.min_body_chars must be >= 0")
	}
	if c.Extract.ChunkMaxChars <= 0 {
		errs = append(errs, "extract.chunk_max_chars must be > 0")
	}
	if c.Extract.MaxConcurrentPages < 1 || c.Extract.MaxConcurrentPages > 50 {
		errs = append(errs, "extract.max_concurrent_pages must be between 1 and 50")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateBackend() []string {
	switch c.Backend.Provider {
	case "anthropic":
		if c.Anthropic.Key == "" {
			return []string{"anthropic.key is required"}
		}
	case "perplexity":
		if c.Perplexity.Key == "" {
			return []string{"perplexity.key is required"}
		}
	default:
		return []string{"backend.provider must be anthropic or perplexity"}
	}
	return nil
}

func (c *Config) validateSearch() []string {
	if len(c.Search.Providers) == 0 {
		return []string{"search.providers must not be empty"}
	}
	var errs []string
	for _, p := range c.Search.Providers {
		switch p {
		case "google":
			if c.Google.Key == "" || c.Google.CX == "" {
				errs = append(errs, "google.key and google.cx are required")
			}
		case "serpapi":
			if c.SerpAPI.Key == "" {
				errs = append(errs, "serpapi.key is required")
			}
		case "jina":
			if c.Jina.Key == "" {
				errs = append(errs, "jina.key is required")
			}
		default:
			errs = append(errs, "unknown search provider "+p)
		}
	}
	return errs
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
