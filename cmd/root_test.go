package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/config"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"run", "serve", "signals", "chunk"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "stakeholder-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	for _, name := range []string{"text", "file", "format", "pages"} {
		require.NotNil(t, runCmd.Flags().Lookup(name), "run should have --%s", name)
	}
	assert.Equal(t, "json", runCmd.Flags().Lookup("format").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}

func TestProjectText(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "project.txt")
	require.NoError(t, os.WriteFile(txt, []byte("Solar recycling"), 0o644))

	got, err := projectText("inline", "")
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	got, err = projectText("", txt)
	require.NoError(t, err)
	assert.Equal(t, "Solar recycling", got)

	got, err = projectText("", "brief.PDF")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = projectText("", "")
	assert.Error(t, err)
	_, err = projectText("a", txt)
	assert.Error(t, err)
	_, err = projectText("", filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestWriteResult(t *testing.T) {
	result := model.NewRunResult("run-1", time.Unix(0, 0).UTC())
	result.Stakeholders = []model.Stakeholder{{Name: "Jane Doe"}}

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, result, "json"))
	assert.Contains(t, buf.String(), `"name": "Jane Doe"`)

	buf.Reset()
	require.NoError(t, writeResult(&buf, result, "yaml"))
	assert.Contains(t, buf.String(), "name: Jane Doe")
	assert.Contains(t, buf.String(), "run_id: run-1")

	assert.Error(t, writeResult(&buf, result, "xml"))
}

func TestPrintChunks(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, printChunks(cmd, "abcdefg", 3))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "chunk 1/3  chars 0-3 (3)", lines[0])
	assert.Equal(t, "chunk 3/3  chars 6-7 (1)", lines[2])

	assert.Error(t, printChunks(cmd, "x", 0))
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.OCR.Provider = "pdfcpu"
	c.Fetch.StaticTimeoutSecs = 5
	c.Fetch.MinBodyChars = 500
	c.Extract.ChunkMaxChars = 8000
	c.Extract.MaxConcurrentPages = 5
	return c
}

func TestInitFetch_StaticOnly(t *testing.T) {
	env, err := initFetch(testConfig())
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Fetcher)
	assert.NotNil(t, env.Signals)
	assert.NotNil(t, env.Converter)
	assert.Nil(t, env.renderer)
}

func TestInitFetch_RenderedTiers(t *testing.T) {
	c := testConfig()
	c.Fetch.Render.Enabled = true
	c.Jina.Key = "j"
	c.Firecrawl.Key = "f"

	env, err := initFetch(c)
	require.NoError(t, err)
	// The browser is launched lazily, so Close without a fetch is a no-op.
	defer env.Close()
	assert.NotNil(t, env.renderer)
}

func TestInitPipeline_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.Backend.Provider = "anthropic"
	_, err := initPipeline(t.Context(), c, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestInitPipeline(t *testing.T) {
	c := testConfig()
	c.Backend.Provider = "anthropic"
	c.Anthropic.Key = "sk-ant"
	c.Search.Providers = []string{"serpapi"}
	c.SerpAPI.Key = "s"

	env, err := initPipeline(t.Context(), c, "run")
	require.NoError(t, err)
	defer env.Close()
	assert.NotNil(t, env.Pipeline)
}
