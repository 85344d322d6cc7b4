package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"PORT"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		TTL      string `yaml:"ttl" env:"REDIS_TTL"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"POSTGRES_URL"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl" env:"QUIZ_TTL"`
	} `yaml:"quiz"`
	// RevealTicks and OpponentAccuracy accept zero; nil means not set.
	Challenge struct {
		AnswerSeconds    int      `yaml:"answer_seconds" env:"CHALLENGE_ANSWER_SECONDS"`
		RevealTicks      *int     `yaml:"reveal_ticks" env:"CHALLENGE_REVEAL_TICKS"`
		TickInterval     string   `yaml:"tick_interval" env:"CHALLENGE_TICK_INTERVAL"`
		OpponentAccuracy *float64 `yaml:"opponent_accuracy" env:"CHALLENGE_OPPONENT_ACCURACY"`
		DefaultMode      string   `yaml:"default_mode" env:"CHALLENGE_DEFAULT_MODE"`
	} `yaml:"challenge"`
	Vault struct {
		EntryFee       int64  `yaml:"entry_fee" env:"VAULT_ENTRY_FEE"`
		MinEntryFee    int64  `yaml:"min_entry_fee" env:"VAULT_MIN_ENTRY_FEE"`
		InitialBalance int64  `yaml:"initial_balance" env:"VAULT_INITIAL_BALANCE"`
		EntryTTL       string `yaml:"entry_ttl" env:"VAULT_ENTRY_TTL"`
	} `yaml:"vault"`
	OAuth struct {
		TokenURL     string `yaml:"token_url" env:"OAUTH_TOKEN_URL"`
		ClientID     string `yaml:"client_id" env:"OAUTH_CLIENT_ID"`
		ClientSecret string `yaml:"client_secret" env:"OAUTH_CLIENT_SECRET"`
		UserURL      string `yaml:"user_url" env:"OAUTH_USER_URL"`
	} `yaml:"oauth"`
}

// Load reads YAML config from path and applies environment overrides.
// A missing file is not an error; the environment alone is used.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
