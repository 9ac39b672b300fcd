package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MeridiaLabs/Meridia/consensus"
)

type Config struct {
	Mining MiningConfig
	Log    LogConfig
}

type MiningConfig struct {
	// Difficulty is the number of leading zero hex characters a proof
	// digest must carry.
	Difficulty int

	// RewardSender is the sender recorded on reward transactions.
	RewardSender string

	// RewardQuantity is credited to the miner per mined block.
	RewardQuantity float64

	// SearchTimeout bounds one proof-of-work search. Zero disables the
	// bound.
	SearchTimeout time.Duration
}

type LogConfig struct {
	Level  string // debug|info|warn|error
	Format string // json|text
}

func Default() Config {
	return Config{
		Mining: MiningConfig{
			Difficulty:     consensus.DefaultDifficulty,
			RewardSender:   "0",
			RewardQuantity: 1,
			SearchTimeout:  30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// FromEnv returns the default configuration overridden by MERIDIA_*
// environment variables.
func FromEnv() (Config, error) {
	cfg := Default()

	cfg.Mining.Difficulty = envOrInt("MERIDIA_POW_DIFFICULTY", cfg.Mining.Difficulty)
	cfg.Mining.RewardSender = envOr("MERIDIA_REWARD_SENDER", cfg.Mining.RewardSender)
	cfg.Mining.RewardQuantity = envOrFloat("MERIDIA_REWARD_QUANTITY", cfg.Mining.RewardQuantity)
	cfg.Mining.SearchTimeout = envOrDuration("MERIDIA_POW_TIMEOUT", cfg.Mining.SearchTimeout)
	cfg.Log.Level = envOr("MERIDIA_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("MERIDIA_LOG_FORMAT", cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Mining.Difficulty < 1 || c.Mining.Difficulty > consensus.MaxDifficulty {
		return fmt.Errorf("mining difficulty out of range: %d", c.Mining.Difficulty)
	}
	if c.Mining.RewardSender == "" {
		return errors.New("mining reward sender must not be empty")
	}
	if c.Mining.RewardQuantity <= 0 {
		return fmt.Errorf("mining reward quantity must be > 0, got %v", c.Mining.RewardQuantity)
	}
	if c.Mining.SearchTimeout < 0 {
		return fmt.Errorf("mining search timeout must not be negative: %s", c.Mining.SearchTimeout)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}
	return nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envOrInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envOrDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
