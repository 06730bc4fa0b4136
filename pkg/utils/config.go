package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	HTTPAddr string       `toml:"http_addr"`
	SyncAddr string       `toml:"sync_addr"`
	GRPCAddr string       `toml:"grpc_addr"`
	DBPath   string       `toml:"db_path"`
	Auth     AuthSection  `toml:"auth"`
	Cards    CardsSection `toml:"cards"`
}

type AuthSection struct {
	JWTSecret   string `toml:"jwt_secret"`
	JWTIssuer   string `toml:"jwt_issuer"`
	JWTTTLHours int    `toml:"jwt_ttl_hours"`
}

type CardsSection struct {
	BaseURL   string `toml:"base_url"`
	Interval  string `toml:"interval"`  // min delay between Scryfall calls, e.g. "100ms"
	CacheTTL  string `toml:"cache_ttl"` // how long cached cards stay fresh, e.g. "168h"
	UserAgent string `toml:"user_agent"`
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

type CardsConfig struct {
	BaseURL   string
	Interval  time.Duration
	CacheTTL  time.Duration
	UserAgent string
}

func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		SyncAddr: ":7070",
		GRPCAddr: ":9090",
		Auth: AuthSection{
			// dev default (change for demo / production)
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "deckerr",
			JWTTTLHours: 24,
		},
		Cards: CardsSection{
			BaseURL:   "https://api.scryfall.com",
			Interval:  "100ms",
			CacheTTL:  "168h",
			UserAgent: "deckerr/1.0",
		},
	}
}

// Load reads defaults, then the TOML file named by DECKERR_CONFIG (if any),
// then DECKERR_* environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("DECKERR_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.HTTPAddr, "DECKERR_HTTP_ADDR")
	setString(&c.SyncAddr, "DECKERR_SYNC_ADDR")
	setString(&c.GRPCAddr, "DECKERR_GRPC_ADDR")
	setString(&c.DBPath, "DECKERR_DB_PATH")
	setString(&c.Auth.JWTSecret, "DECKERR_JWT_SECRET")
	setString(&c.Auth.JWTIssuer, "DECKERR_JWT_ISSUER")
	setString(&c.Cards.BaseURL, "DECKERR_SCRYFALL_URL")
	setString(&c.Cards.Interval, "DECKERR_SCRYFALL_INTERVAL")
	setString(&c.Cards.CacheTTL, "DECKERR_CARD_CACHE_TTL")

	if v := os.Getenv("DECKERR_JWT_TTL_HOURS"); v != "" {
		// if parse fails, keep what we have
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Auth.JWTTTLHours = n
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c Config) AuthConfig() AuthConfig {
	hours := c.Auth.JWTTTLHours
	if hours <= 0 {
		hours = 24
	}
	return AuthConfig{
		JWTSecret:   c.Auth.JWTSecret,
		JWTIssuer:   c.Auth.JWTIssuer,
		JWTDuration: time.Duration(hours) * time.Hour,
	}
}

func (c Config) CardsConfig() CardsConfig {
	out := CardsConfig{
		BaseURL:   c.Cards.BaseURL,
		Interval:  parseDuration(c.Cards.Interval, 100*time.Millisecond),
		CacheTTL:  parseDuration(c.Cards.CacheTTL, 7*24*time.Hour),
		UserAgent: c.Cards.UserAgent,
	}
	if out.UserAgent == "" {
		out.UserAgent = "deckerr/1.0"
	}
	return out
}

// LoadAuthConfig is the narrow entry point used by binaries that only need
// token settings.
func LoadAuthConfig() AuthConfig {
	cfg, err := Load()
	if err != nil {
		return Default().AuthConfig()
	}
	return cfg.AuthConfig()
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
