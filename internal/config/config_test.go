package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "anthropic", cfg.Backend.Provider)
	assert.Equal(t, 3, cfg.Search.QueryCount)
	assert.Equal(t, 3, cfg.Search.ResultsPerQuery)
	assert.Equal(t, []string{"google", "serpapi"}, cfg.Search.Providers)
	assert.Equal(t, 15, cfg.Fetch.StaticTimeoutSecs)
	assert.Equal(t, 500, cfg.Fetch.MinBodyChars)
	assert.Equal(t, "Mozilla/5.0", cfg.Fetch.UserAgent)
	assert.True(t, cfg.Fetch.Render.Enabled)
	assert.Equal(t, 30, cfg.Fetch.Render.NavTimeoutSecs)
	assert.Equal(t, 3000, cfg.Fetch.Render.SettleMS)
	assert.Equal(t, 8000, cfg.Extract.ChunkMaxChars)
	assert.Equal(t, []string{"twitter.com", "linkedin.com", "facebook.com"}, cfg.Extract.SocialDomains)
	assert.Equal(t, "pdfcpu", cfg.OCR.Provider)
	assert.Equal(t, "https://r.jina.ai", cfg.Jina.BaseURL)
	assert.Equal(t, "https://api.firecrawl.dev/v2", cfg.Firecrawl.BaseURL)
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
extract:
  chunk_max_chars: 4000
search:
  providers: [jina]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4000, cfg.Extract.ChunkMaxChars)
	assert.Equal(t, []string{"jina"}, cfg.Search.Providers)
	// Defaults still apply for unset values
	assert.Equal(t, 500, cfg.Fetch.MinBodyChars)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
backend:
  provider: anthropic
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("STAKEHOLDER_BACKEND_PROVIDER", "perplexity")
	t.Setenv("STAKEHOLDER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "perplexity", cfg.Backend.Provider)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("STAKEHOLDER_SERVER_PORT", "3000")
	t.Setenv("STAKEHOLDER_ANTHROPIC_KEY", "sk-ant-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
}

func TestLoadCredentialsFromEnv(t *testing.T) {
	chdirTemp(t)

	t.Setenv("STAKEHOLDER_PERPLEXITY_KEY", "pplx-1")
	t.Setenv("STAKEHOLDER_GOOGLE_KEY", "g-key")
	t.Setenv("STAKEHOLDER_GOOGLE_CX", "g-cx")
	t.Setenv("STAKEHOLDER_SERPAPI_KEY", "serp-1")
	t.Setenv("STAKEHOLDER_JINA_KEY", "jina-1")
	t.Setenv("STAKEHOLDER_FIRECRAWL_KEY", "fc-1")
	t.Setenv("STAKEHOLDER_OCR_MISTRAL_KEY", "mis-1")
	t.Setenv("STAKEHOLDER_FETCH_RENDER_REMOTE_URL", "ws://chrome:9222")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pplx-1", cfg.Perplexity.Key)
	assert.Equal(t, "g-key", cfg.Google.Key)
	assert.Equal(t, "g-cx", cfg.Google.CX)
	assert.Equal(t, "serp-1", cfg.SerpAPI.Key)
	assert.Equal(t, "jina-1", cfg.Jina.Key)
	assert.Equal(t, "fc-1", cfg.Firecrawl.Key)
	assert.Equal(t, "mis-1", cfg.OCR.MistralKey)
	assert.Equal(t, "ws://chrome:9222", cfg.Fetch.Render.RemoteURL)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Backend.Provider = "anthropic"
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Search.Providers = []string{"google"}
	cfg.Google.Key = "g-key"
	cfg.Google.CX = "cx-id"
	cfg.Extract.ChunkMaxChars = 8000
	cfg.Extract.MaxConcurrentPages = 5
	cfg.Fetch.MinBodyChars = 500
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateRun_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("run"))
}

func TestValidateRun_MissingKeys(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""
	cfg.Google.CX = ""

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
	assert.Contains(t, err.Error(), "google.key and google.cx are required")
}

func TestValidatePerplexityBackend(t *testing.T) {
	cfg := validDefaults()
	cfg.Backend.Provider = "perplexity"

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "perplexity.key is required")

	cfg.Perplexity.Key = "pplx-key"
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateUnknownBackend(t *testing.T) {
	cfg := validDefaults()
	cfg.Backend.Provider = "openai"

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.provider")
}

func TestValidateSearchProviders(t *testing.T) {
	cfg := validDefaults()
	cfg.Search.Providers = nil
	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.providers must not be empty")

	cfg.Search.Providers = []string{"bing"}
	err = cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown search provider bing")

	cfg.Search.Providers = []string{"serpapi", "jina"}
	cfg.SerpAPI.Key = "s-key"
	cfg.Jina.Key = "j-key"
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateSignals_NoKeysNeeded(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""
	cfg.Search.Providers = nil

	assert.NoError(t, cfg.Validate("signals"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Extract.ChunkMaxChars = 0
	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_max_chars must be > 0")

	cfg.Extract.ChunkMaxChars = 8000
	cfg.Extract.MaxConcurrentPages = 51
	err = cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_pages must be between 1 and 50")

	cfg.Extract.MaxConcurrentPages = 50
	cfg.Fetch.MinBodyChars = -1
	err = cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_body_chars")
}
