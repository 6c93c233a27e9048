// Package config loads service configuration from the environment and an
// optional YAML file. File values take precedence over environment values.
package config

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR, default=:8080"`

	// PricingTable optionally extends the built-in asset pricing rules.
	PricingTable string `yaml:"pricing_table" env:"PRICING_TABLE"`

	Nobitex NobitexConfig `yaml:"nobitex"`
	Sync    SyncConfig    `yaml:"sync"`
}

// NobitexConfig is the transport policy for the exchange client.
type NobitexConfig struct {
	BaseURL      string        `yaml:"base_url" env:"NOBITEX_BASE_URL, default=https://api.nobitex.ir"`
	MaxRetries   int           `yaml:"max_retries" env:"NOBITEX_MAX_RETRIES, default=3"`
	RetryDelay   time.Duration `yaml:"retry_delay" env:"NOBITEX_RETRY_DELAY, default=500ms"`
	Timeout      time.Duration `yaml:"timeout" env:"NOBITEX_TIMEOUT, default=10s"`
	CandleWindow time.Duration `yaml:"candle_window" env:"NOBITEX_CANDLE_WINDOW, default=48h"`
}

// SyncConfig tunes the transaction sync engine.
type SyncConfig struct {
	PageSize           int `yaml:"page_size" env:"SYNC_PAGE_SIZE, default=100"`
	MaxParallelWallets int `yaml:"max_parallel_wallets" env:"SYNC_MAX_PARALLEL_WALLETS, default=4"`
}

// Get reads configuration, honoring the -config flag when present.
func Get(ctx context.Context) (Config, error) {
	path := flag.String("config", "", "path to yaml config")
	flag.Parse()

	return Load(ctx, *path)
}

// Load resolves configuration from the environment and overlays the YAML
// file at path when it is non-empty.
func Load(ctx context.Context, path string) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "process env config")
	}

	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file")
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config yaml")
	}

	return cfg, nil
}
