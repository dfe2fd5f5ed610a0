package main

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/generator"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(envMap(map[string]string{"JWT_SECRET": "s"}))
	require.NoError(t, err)
	assert.Equal(t, "launchclarity.db", cfg.DatabaseURL)
	assert.Equal(t, "lc_auth", cfg.CookieName)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "stub", cfg.LLMProvider)
	assert.Equal(t, generator.DefaultTimeout, cfg.GenerationTimeout)
	assert.Equal(t, 2, cfg.GenerationConcurrency)
	mods, err := cfg.autoGenerateModules()
	require.NoError(t, err)
	assert.Equal(t, []catalog.ModuleType{catalog.InitialIntake, catalog.AssumptionTracker}, mods)
	assert.Equal(t, http.SameSiteLaxMode, cfg.sameSite())
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	_, err := loadConfig(envMap(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadConfigEnv(t *testing.T) {
	cfg, err := loadConfig(envMap(map[string]string{
		"JWT_SECRET":             "s",
		"DATABASE_URL":           "postgres://u:p@localhost/lc",
		"OPENAI_API_KEY":         "sk-test",
		"COOKIE_SECURE":          "true",
		"COOKIE_SAMESITE":        "None",
		"CORS_ORIGIN":            "http://a.test/, http://b.test",
		"GENERATION_TIMEOUT":     "30s",
		"GENERATION_CONCURRENCY": "4",
		"AUTO_GENERATE":          "risk_assessment, swot_analysis",
	}))
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLMProvider, "detected from the key")
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, http.SameSiteNoneMode, cfg.sameSite())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.corsOrigins())
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 4, cfg.GenerationConcurrency)
	assert.Equal(t, []string{"risk_assessment", "swot_analysis"}, cfg.AutoGenerate)

	cfg, err = loadConfig(envMap(map[string]string{"JWT_SECRET": "s", "GEMINI_API_KEY": "g", "AUTO_GENERATE": "none"}))
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Empty(t, cfg.AutoGenerate)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"timeout":     {"GENERATION_TIMEOUT": "soon"},
		"concurrency": {"GENERATION_CONCURRENCY": "0"},
		"provider":    {"LLM_PROVIDER": "claude-on-a-napkin"},
		"module":      {"AUTO_GENERATE": "horoscope"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			env["JWT_SECRET"] = "s"
			_, err := loadConfig(envMap(env))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launchclarity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
llmProvider: gemini
geminiModel: gemini-2.5-pro
generationTimeout: 45s
autoGenerate:
  - market_sizing_analysis
`), 0o644))

	cfg, err := loadConfig(envMap(map[string]string{
		"JWT_SECRET":  "s",
		"CONFIG_FILE": path,
		"PORT":        "7070",
	}))
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port, "env overrides the file")
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "gemini-2.5-pro", cfg.GeminiModel)
	assert.Equal(t, 45*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, []string{"market_sizing_analysis"}, cfg.AutoGenerate)

	_, err = loadConfig(envMap(map[string]string{"JWT_SECRET": "s", "CONFIG_FILE": filepath.Join(t.TempDir(), "missing.yaml")}))
	assert.Error(t, err)
}
