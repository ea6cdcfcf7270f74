// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Upstream) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Manhwaru API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis). Optional: when empty the service runs with the
	// in-process cache only.
	RedisURL string `env:"REDIS_URL"`

	// External catalogue (MangaDex-compatible API)
	UpstreamAPIURL    string `env:"UPSTREAM_API_URL"   envDefault:"https://api.mangadex.org"`
	UpstreamCoverURL  string `env:"UPSTREAM_COVER_URL" envDefault:"https://uploads.mangadex.org"`
	UpstreamUsername  string `env:"UPSTREAM_USERNAME"`
	UpstreamSecret    string `env:"UPSTREAM_SECRET"`
	UpstreamUserAgent string `env:"UPSTREAM_USER_AGENT" envDefault:"manhwaru/0.1"`

	// Upstream synchronisation
	SyncBatchSize    int    `env:"SYNC_BATCH_SIZE" envDefault:"10"`
	SyncCronSchedule string `env:"SYNC_CRON_SCHEDULE"`

	// Cache TTLs (seconds) and capacity per tier
	CacheTTLDefault time.Duration `env:"CACHE_TTL_DEFAULT" envDefault:"3600s"`
	CacheTTLSearch  time.Duration `env:"CACHE_TTL_SEARCH"  envDefault:"300s"`
	CacheTTLTag     time.Duration `env:"CACHE_TTL_TAG"     envDefault:"86400s"`
	CacheMaxKeys    int           `env:"CACHE_MAX_KEYS"    envDefault:"1000"`

	// Static bearer token guarding the /admin API surface
	AdminAPIToken string `env:"ADMIN_API_TOKEN"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOriginSuffixes returns the origin suffixes accepted by the CORS
// middleware in production. EXTRA_ORIGINS extends the built-in list with a
// comma-separated set of suffixes.
func (c *Config) AllowedOriginSuffixes() []string {
	suffixes := []string{"manhwaru.app"}
	for _, s := range strings.Split(c.ExtraOrigins, ",") {
		if s = strings.TrimSpace(s); s != "" {
			suffixes = append(suffixes, s)
		}
	}
	return suffixes
}

// HasUpstreamCredentials reports whether the external catalogue client can
// authenticate for protected endpoints.
func (c *Config) HasUpstreamCredentials() bool {
	return c.UpstreamUsername != "" && c.UpstreamSecret != ""
}

// CronSchedule resolves the sync schedule, falling back to a faster cadence in
// production than in development.
func (c *Config) CronSchedule() string {
	if c.SyncCronSchedule != "" {
		return c.SyncCronSchedule
	}
	if c.IsProduction() {
		return "*/15 * * * *"
	}
	return "0 */6 * * *"
}
