package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the planner service.
type Config struct {
	DatabaseURL      string
	HTTPAddr         string
	RolloverInterval time.Duration
	RolloverWorkers  int
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	interval, err := parseMinutes(strings.TrimSpace(os.Getenv("ROLLOVER_INTERVAL_MINUTES")))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		HTTPAddr:         strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		RolloverInterval: interval,
		RolloverWorkers:  parseCount(strings.TrimSpace(os.Getenv("ROLLOVER_WORKERS"))),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "planner.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.RolloverInterval == 0 {
		cfg.RolloverInterval = 5 * time.Minute
	}
	if cfg.RolloverWorkers <= 0 {
		cfg.RolloverWorkers = 4
	}

	return cfg, nil
}

func parseMinutes(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0, fmt.Errorf("ROLLOVER_INTERVAL_MINUTES must be a positive integer, got %q", raw)
	}
	return time.Duration(minutes) * time.Minute, nil
}

func parseCount(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
