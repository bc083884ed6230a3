package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	ProgressTTL      time.Duration `mapstructure:"PROGRESS_TTL"`
	AuthIssuer       string        `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL      string        `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience     string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey   string        `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS     float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit        string        `mapstructure:"BODY_LIMIT"`
	AnthropicAPIKey  string        `mapstructure:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string        `mapstructure:"ANTHROPIC_BASE_URL"`
	AnthropicModel   string        `mapstructure:"ANTHROPIC_MODEL"`
	SummaryMaxTokens int           `mapstructure:"SUMMARY_MAX_TOKENS"`
	LLMTimeout       time.Duration `mapstructure:"LLM_TIMEOUT"`
}

var keys = []string{
	"PORT",
	"ENV",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"REDIS_URL",
	"PROGRESS_TTL",
	"AUTH_ISSUER",
	"AUTH_JWKS_URL",
	"AUTH_AUDIENCE",
	"AUTH_SIGNING_KEY",
	"CORS_ORIGINS",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
	"REQUEST_TIMEOUT",
	"BODY_LIMIT",
	"ANTHROPIC_API_KEY",
	"ANTHROPIC_BASE_URL",
	"ANTHROPIC_MODEL",
	"SUMMARY_MAX_TOKENS",
	"LLM_TIMEOUT",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("PROGRESS_TTL", "720h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("BODY_LIMIT", "50M")
	v.SetDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com")
	v.SetDefault("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022")
	v.SetDefault("SUMMARY_MAX_TOKENS", 3000)
	v.SetDefault("LLM_TIMEOUT", "55s")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
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

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SummaryEnabled reports whether an API key for the summary model is set.
func (c *Config) SummaryEnabled() bool {
	return c.AnthropicAPIKey != ""
}

// Validate checks that the configuration is safe to run. Outside development
// a token verifier must be configured, either an issuer, a JWKS URL, or a
// shared signing key.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" && c.AuthJWKSURL == "" && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_ISSUER, AUTH_JWKS_URL or AUTH_SIGNING_KEY must be set when ENV=%q", c.Env)
	}
	if c.IsProduction() && c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 characters in production")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.LLMTimeout <= 0 || c.LLMTimeout > c.RequestTimeout {
		return fmt.Errorf("LLM_TIMEOUT must be positive and not exceed REQUEST_TIMEOUT (%s), got %s", c.RequestTimeout, c.LLMTimeout)
	}
	if c.SummaryMaxTokens <= 0 {
		return fmt.Errorf("SUMMARY_MAX_TOKENS must be positive, got %d", c.SummaryMaxTokens)
	}
	return nil
}
