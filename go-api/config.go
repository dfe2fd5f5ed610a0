package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/generator"
)

// Config is read from an optional YAML file (CONFIG_FILE), then overridden
// by environment variables. Secrets only come from the environment.
type Config struct {
	DatabaseURL    string `yaml:"databaseUrl"`
	JWTSecret      string `yaml:"-"`
	CookieName     string `yaml:"cookieName"`
	CookieSecure   bool   `yaml:"cookieSecure"`
	CookieDomain   string `yaml:"cookieDomain"`
	CookieSameSite string `yaml:"cookieSameSite"`
	CORSOrigin     string `yaml:"corsOrigin"`
	Port           string `yaml:"port"`
	LogLevel       string `yaml:"logLevel"`

	LLMProvider           string        `yaml:"llmProvider"`
	OpenAIKey             string        `yaml:"-"`
	OpenAIModel           string        `yaml:"openaiModel"`
	OpenAIBaseURL         string        `yaml:"openaiBaseUrl"`
	OpenAIOrg             string        `yaml:"openaiOrg"`
	GeminiKey             string        `yaml:"-"`
	GeminiModel           string        `yaml:"geminiModel"`
	GenerationTimeout     time.Duration `yaml:"generationTimeout"`
	GenerationConcurrency int           `yaml:"generationConcurrency"`
	AutoGenerate          []string      `yaml:"autoGenerate"`

	PaymentLinkBase string `yaml:"paymentLinkBase"`
}

func defaultConfig() Config {
	return Config{
		DatabaseURL:           "launchclarity.db",
		CookieName:            "lc_auth",
		CookieSameSite:        "lax",
		CORSOrigin:            "http://localhost:5173",
		Port:                  "8080",
		LogLevel:              "info",
		GenerationTimeout:     generator.DefaultTimeout,
		GenerationConcurrency: 2,
		AutoGenerate:          []string{string(catalog.InitialIntake), string(catalog.AssumptionTracker)},
		PaymentLinkBase:       "https://buy.stripe.com/test",
	}
}

// loadDotenv overlays the first .env found in ., .. or ../..
func loadDotenv() string {
	for _, p := range []string{".env", filepath.Join("..", ".env"), filepath.Join("..", "..", ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Overload(p)
			return p
		}
	}
	return ""
}

// loadConfig builds the config from defaults, the YAML file and env, using
// getenv for lookups so tests can supply their own environment.
func loadConfig(getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	if path := strings.TrimSpace(getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	str := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str(&cfg.DatabaseURL, "DATABASE_URL")
	str(&cfg.JWTSecret, "JWT_SECRET")
	str(&cfg.CookieName, "COOKIE_NAME")
	str(&cfg.CookieDomain, "COOKIE_DOMAIN")
	str(&cfg.CookieSameSite, "COOKIE_SAMESITE")
	str(&cfg.CORSOrigin, "CORS_ORIGIN")
	str(&cfg.Port, "PORT")
	str(&cfg.LogLevel, "LOG_LEVEL")
	str(&cfg.LLMProvider, "LLM_PROVIDER")
	str(&cfg.OpenAIKey, "OPENAI_API_KEY")
	str(&cfg.OpenAIModel, "OPENAI_MODEL")
	str(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	str(&cfg.OpenAIOrg, "OPENAI_ORG")
	str(&cfg.GeminiKey, "GEMINI_API_KEY")
	str(&cfg.GeminiModel, "GEMINI_MODEL")
	str(&cfg.PaymentLinkBase, "PAYMENT_LINK_BASE")

	if v := getenv("COOKIE_SECURE"); v != "" {
		cfg.CookieSecure = v == "true"
	}
	if v := strings.TrimSpace(getenv("GENERATION_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("GENERATION_TIMEOUT: %w", err)
		}
		cfg.GenerationTimeout = d
	}
	if v := strings.TrimSpace(getenv("GENERATION_CONCURRENCY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("GENERATION_CONCURRENCY must be a positive integer, got %q", v)
		}
		cfg.GenerationConcurrency = n
	}
	switch v := strings.TrimSpace(getenv("AUTO_GENERATE")); v {
	case "":
	case "none", "-":
		cfg.AutoGenerate = nil
	default:
		cfg.AutoGenerate = splitList(v)
	}

	if cfg.LLMProvider == "" {
		switch {
		case cfg.OpenAIKey != "":
			cfg.LLMProvider = "openai"
		case cfg.GeminiKey != "":
			cfg.LLMProvider = "gemini"
		default:
			cfg.LLMProvider = "stub"
		}
	}
	cfg.LLMProvider = strings.ToLower(cfg.LLMProvider)

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.LLMProvider {
	case "openai", "gemini", "stub":
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q (use openai, gemini or stub)", c.LLMProvider))
	}
	if _, err := c.autoGenerateModules(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Config) autoGenerateModules() ([]catalog.ModuleType, error) {
	out := make([]catalog.ModuleType, 0, len(c.AutoGenerate))
	for _, s := range c.AutoGenerate {
		mt, err := catalog.ParseModuleType(s)
		if err != nil {
			return nil, fmt.Errorf("AUTO_GENERATE: %w", err)
		}
		out = append(out, mt)
	}
	return out, nil
}

// corsOrigins splits the comma-separated CORS_ORIGIN list.
func (c Config) corsOrigins() []string {
	var origins []string
	for _, p := range strings.Split(c.CORSOrigin, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c Config) sameSite() http.SameSite {
	switch strings.ToLower(c.CookieSameSite) {
	case "none":
		return http.SameSiteNoneMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteLaxMode
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
