// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration. Every field can be set through a
// SETUPCATALOG_* environment variable; command-line flags override them.
type Config struct {
	DBPath  string `env:"DB" envDefault:"setupcatalog.db"`
	Addr    string `env:"ADDR" envDefault:":8080"`
	LogPath string `env:"LOG"`

	BoothTTL             time.Duration `env:"BOOTH_TTL" envDefault:"24h"`
	GitHubTTL            time.Duration `env:"GITHUB_TTL" envDefault:"1h"`
	FetchTimeout         time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	MaxConcurrentRefresh int           `env:"MAX_CONCURRENT_REFRESH" envDefault:"8"`
	UpstreamRPS          float64       `env:"UPSTREAM_RPS" envDefault:"5"`
	UserAgent            string        `env:"USER_AGENT" envDefault:"setupcatalog/1.0"`

	BoothBaseURL string `env:"BOOTH_BASE_URL" envDefault:"https://booth.pm"`
	GitHubURL    string `env:"GITHUB_URL" envDefault:"https://api.github.com/"`
	GitHubToken  string `env:"GITHUB_TOKEN"`

	AIURL   string `env:"AI_URL"`
	AIKey   string `env:"AI_KEY"`
	AIModel string `env:"AI_MODEL" envDefault:"gpt-4.1-mini"`

	EnrichWorkers int           `env:"ENRICH_WORKERS" envDefault:"2"`
	EnrichQueue   int           `env:"ENRICH_QUEUE" envDefault:"256"`
	EnrichTimeout time.Duration `env:"ENRICH_TIMEOUT" envDefault:"30s"`

	FeaturesPath string `env:"FEATURES"`
	TaxonomyPath string `env:"TAXONOMY"`

	OTELEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load parses SETUPCATALOG_* variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "SETUPCATALOG_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.BoothTTL <= 0 || c.GitHubTTL <= 0 {
		return fmt.Errorf("ttls must be positive")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.MaxConcurrentRefresh < 1 {
		return fmt.Errorf("max concurrent refresh must be at least 1")
	}
	if c.UpstreamRPS < 0 {
		return fmt.Errorf("upstream rps must not be negative")
	}
	if c.EnrichWorkers < 1 || c.EnrichQueue < 1 {
		return fmt.Errorf("enrichment workers and queue must be at least 1")
	}
	return nil
}
