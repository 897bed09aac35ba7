package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                string
	DatabaseURL         string
	Timezone            string
	SlotCapacity        int
	CapacityFailOpen    bool
	WaitEstimator       string
	EstimatedLead       time.Duration
	WaitPerActive       int
	StaleCancelEnabled  bool
	StaleScanInterval   time.Duration
	StaleBatchSize      int
	RateLimitPerMinute  int
	RateLimitBurst      int
	DisplayPollInterval time.Duration
	DisplayBatchSize    int
}

func Load() Config {
	// A missing .env is fine, the process env still applies.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	timezone := os.Getenv("TIMEZONE")
	if timezone == "" {
		timezone = "Asia/Jakarta"
	}
	estimator := os.Getenv("WAIT_ESTIMATOR")
	if estimator == "" {
		estimator = "flat"
	}

	return Config{
		Port:                port,
		DatabaseURL:         os.Getenv("DB_DSN"),
		Timezone:            timezone,
		SlotCapacity:        readInt("SLOT_CAPACITY", 1),
		CapacityFailOpen:    readBool("CAPACITY_FAIL_OPEN", true),
		WaitEstimator:       estimator,
		EstimatedLead:       readDurationMinutes("ESTIMATED_LEAD_MINUTES", 30),
		WaitPerActive:       readInt("WAIT_PER_ACTIVE_MINUTES", 3),
		StaleCancelEnabled:  readBool("STALE_CANCEL_ENABLED", false),
		StaleScanInterval:   readDurationSeconds("STALE_SCAN_INTERVAL_SECONDS", 3600),
		StaleBatchSize:      readInt("STALE_BATCH_SIZE", 100),
		RateLimitPerMinute:  readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:      readInt("RATE_LIMIT_BURST", 30),
		DisplayPollInterval: readDurationSeconds("DISPLAY_POLL_INTERVAL_SECONDS", 2),
		DisplayBatchSize:    readInt("DISPLAY_BATCH_SIZE", 100),
	}
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readDurationMinutes(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Minute
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
