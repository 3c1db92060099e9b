// Package config loads the strategy-lab YAML configuration and applies
// environment overrides on top of the per-component defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ducminhle1904/strategy-lab/internal/backtest"
	"github.com/ducminhle1904/strategy-lab/internal/decision"
	engineerrors "github.com/ducminhle1904/strategy-lab/internal/errors"
	"github.com/ducminhle1904/strategy-lab/internal/providers"
	"github.com/ducminhle1904/strategy-lab/internal/recommend"
	"github.com/ducminhle1904/strategy-lab/internal/strategy"
	"github.com/ducminhle1904/strategy-lab/pkg/optimization"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvLogLevel     = "STRATLAB_LOG_LEVEL"
	EnvDBPath       = "STRATLAB_DB_PATH"
	EnvBybitKey     = "BYBIT_API_KEY"
	EnvBybitSecret  = "BYBIT_API_SECRET"
	EnvBybitTestnet = "BYBIT_TESTNET"
)

// Config is the full application configuration. A top-level risk section
// in the file is applied over backtest.risk.
type Config struct {
	Strategy    strategy.Params     `json:"strategy" yaml:"strategy"`
	Backtest    backtest.Config     `json:"backtest" yaml:"backtest"`
	Decision    decision.Params     `json:"decision" yaml:"decision"`
	Autotune    optimization.Config `json:"autotune" yaml:"autotune"`
	Recommender recommend.Config    `json:"recommender" yaml:"recommender"`
	Providers   ProvidersConfig     `json:"providers" yaml:"providers"`
	Log         LogConfig           `json:"log" yaml:"log"`
	Data        DataConfig          `json:"data" yaml:"data"`
	Storage     StorageConfig       `json:"storage" yaml:"storage"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level   string `json:"level" yaml:"level"`     // default: info
	Console bool   `json:"console" yaml:"console"` // human-readable output (default: true)
	Dir     string `json:"dir" yaml:"dir"`         // log file directory, empty = no file
}

// DataConfig controls where bars come from.
type DataConfig struct {
	Capital  float64     `json:"capital" yaml:"capital"`   // default: 100000
	Root     string      `json:"root" yaml:"root"`         // CSV tree for --symbol lookups (default: data)
	Exchange string      `json:"exchange" yaml:"exchange"` // exchange directory under root (default: bybit)
	Bybit    BybitConfig `json:"bybit" yaml:"bybit"`
}

// BybitConfig holds the Bybit market data settings.
type BybitConfig struct {
	APIKey    string `json:"-" yaml:"api_key"`
	APISecret string `json:"-" yaml:"api_secret"`
	Testnet   bool   `json:"testnet" yaml:"testnet"`
	Category  string `json:"category" yaml:"category"` // default: linear
	Limit     int    `json:"limit" yaml:"limit"`       // bars per fetch (default: 1000)
}

// ProvidersConfig configures the optional signal providers.
type ProvidersConfig struct {
	Breaker providers.BreakerSettings `json:"breaker" yaml:"breaker"`
}

// StorageConfig selects the snapshot store.
type StorageConfig struct {
	Driver string `json:"driver" yaml:"driver"` // memory | sqlite (default: memory)
	Path   string `json:"path" yaml:"path"`     // sqlite file (default: data/strategy-lab.db)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Strategy:    strategy.DefaultParams(),
		Backtest:    backtest.DefaultConfig(),
		Decision:    decision.DefaultParams(),
		Autotune:    optimization.DefaultConfig(),
		Recommender: recommend.DefaultConfig(),
		Providers:   ProvidersConfig{Breaker: providers.DefaultBreakerSettings()},
		Log:         LogConfig{Level: "info", Console: true},
		Data: DataConfig{
			Capital:  100000,
			Root:     "data",
			Exchange: "bybit",
			Bybit:    BybitConfig{Category: "linear", Limit: 1000},
		},
		Storage: StorageConfig{Driver: "memory", Path: "data/strategy-lab.db"},
	}
}

// Load reads envFile (if present) and the YAML file at path over the
// defaults, then applies environment overrides. An empty path skips the file.
func Load(path, envFile string) (*Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, engineerrors.WrapError(err, engineerrors.ErrorCategoryConfiguration, "config", "read "+path)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, engineerrors.WrapError(err, engineerrors.ErrorCategoryConfiguration, "config", "parse "+path)
		}
		if err := applyRiskSection(raw, &cfg.Backtest.Risk); err != nil {
			return nil, engineerrors.WrapError(err, engineerrors.ErrorCategoryConfiguration, "config", "parse risk "+path)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyRiskSection decodes a top-level risk section over backtest.risk.
func applyRiskSection(raw []byte, risk *backtest.RiskConfig) error {
	var doc struct {
		Risk yaml.Node `yaml:"risk"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc.Risk.IsZero() {
		return nil
	}
	return doc.Risk.Decode(risk)
}

// loadEnvFile loads envFile when it exists. A missing default .env is not
// an error.
func loadEnvFile(envFile string) error {
	if envFile == "" {
		return nil
	}
	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) && envFile == ".env" {
			return nil
		}
		return engineerrors.NewConfigurationError("config", "load env", fmt.Sprintf("env file %s not found", envFile))
	}
	if err := godotenv.Load(envFile); err != nil {
		return engineerrors.WrapError(err, engineerrors.ErrorCategoryConfiguration, "config", "load env "+envFile)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Storage.Driver = "sqlite"
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvBybitKey); v != "" {
		c.Data.Bybit.APIKey = v
	}
	if v := os.Getenv(EnvBybitSecret); v != "" {
		c.Data.Bybit.APISecret = v
	}
	if v := os.Getenv(EnvBybitTestnet); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return engineerrors.NewConfigurationError("config", "env", fmt.Sprintf("%s: %v", EnvBybitTestnet, err))
		}
		c.Data.Bybit.Testnet = b
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	checks := []struct {
		section string
		err     error
	}{
		{"strategy", c.Strategy.Validate()},
		{"backtest", c.Backtest.Validate()},
		{"decision", c.Decision.Validate()},
		{"autotune", c.Autotune.Validate()},
		{"recommender", c.Recommender.Validate()},
	}
	for _, chk := range checks {
		if chk.err != nil {
			return engineerrors.NewConfigurationError("config", "validate", fmt.Sprintf("%s: %v", chk.section, chk.err))
		}
	}
	if c.Data.Capital <= 0 {
		return engineerrors.NewConfigurationError("config", "validate", "data.capital must be positive")
	}
	switch strings.ToLower(c.Storage.Driver) {
	case "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return engineerrors.NewConfigurationError("config", "validate", "storage.path is required for sqlite")
		}
	default:
		return engineerrors.NewConfigurationError("config", "validate", fmt.Sprintf("unknown storage driver %q", c.Storage.Driver))
	}
	return nil
}
