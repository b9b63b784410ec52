package config

import (
	"cmp"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config is built once at startup and injected into component
// constructors. Business logic never reads the environment directly.
type Config struct {
	Host           string
	Port           string
	DBPath         string
	BaseURL        string
	LogLevel       string
	Debug          bool
	AllowedOrigins []string

	// Identity provider settings. IssuerURL and Audience are required
	// unless TestMode is set.
	IssuerURL string
	Audience  string
	JWKSURL   string

	// TestMode bypasses token verification and synthesizes a fixed
	// identity. Never enable in production.
	TestMode bool

	// Denylist substrings rejected by the short-code generator check.
	CodeDenylist []string
}

func NewFromEnv() (Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := Config{
		Host:      cmp.Or(os.Getenv("HOST"), "localhost"),
		Port:      cmp.Or(os.Getenv("PORT"), "8080"),
		DBPath:    cmp.Or(os.Getenv("DB_PATH"), "linkhive.db"),
		BaseURL:   cmp.Or(os.Getenv("BASE_URL"), "http://localhost:8080"),
		LogLevel:  cmp.Or(os.Getenv("LOG_LEVEL"), "info"),
		Debug:     os.Getenv("DEBUG") == "1",
		TestMode:  strings.EqualFold(os.Getenv("TEST_MODE"), "true"),
		IssuerURL: os.Getenv("OIDC_ISSUER_URL"),
		Audience:  os.Getenv("OIDC_AUDIENCE"),
		JWKSURL:   os.Getenv("OIDC_JWKS_URL"),
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.AllowedOrigins = splitList(cmp.Or(os.Getenv("ALLOWED_ORIGINS"), "http://localhost:3000"))
	cfg.CodeDenylist = splitList(cmp.Or(os.Getenv("CODE_DENYLIST"), "hell,damn,hate,kill,die,sex"))

	if !cfg.TestMode {
		if cfg.IssuerURL == "" {
			return Config{}, fmt.Errorf("OIDC_ISSUER_URL is required unless TEST_MODE=true")
		}
		if cfg.Audience == "" {
			return Config{}, fmt.Errorf("OIDC_AUDIENCE is required unless TEST_MODE=true")
		}
	}

	if cfg.JWKSURL == "" && cfg.IssuerURL != "" {
		cfg.JWKSURL = strings.TrimRight(cfg.IssuerURL, "/") + "/discovery/v2.0/keys"
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
