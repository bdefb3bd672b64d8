package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Engine front-door modes.
const (
	ModeDirect = "direct"
	ModeWorker = "worker"
)

// Config holds all runtime configuration for the market simulator.
type Config struct {
	Port            int
	LogLevel        string
	EngineMode      string
	NumBuyers       int
	NumSellers      int
	SimDuration     time.Duration
	MinDecisionWait time.Duration
	MaxDecisionWait time.Duration
	RandomSeed      int64  // 0 means time-seeded
	JournalPath     string // empty disables the trade journal
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	engineMode := getStr("ENGINE_MODE", ModeDirect)
	if engineMode != ModeDirect && engineMode != ModeWorker {
		return nil, fmt.Errorf("invalid ENGINE_MODE: %q, must be one of: direct, worker", engineMode)
	}

	numBuyers, err := getInt("NUM_BUYERS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid NUM_BUYERS: %w", err)
	}
	if numBuyers < 1 {
		return nil, fmt.Errorf("invalid NUM_BUYERS: must be at least 1")
	}

	numSellers, err := getInt("NUM_SELLERS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid NUM_SELLERS: %w", err)
	}
	if numSellers < 1 {
		return nil, fmt.Errorf("invalid NUM_SELLERS: must be at least 1")
	}

	simDuration, err := getDuration("SIM_DURATION", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SIM_DURATION: %w", err)
	}

	minWait, err := getDuration("MIN_DECISION_WAIT", 1*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_DECISION_WAIT: %w", err)
	}

	maxWait, err := getDuration("MAX_DECISION_WAIT", 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_DECISION_WAIT: %w", err)
	}
	if maxWait < minWait {
		return nil, fmt.Errorf("invalid MAX_DECISION_WAIT: must be >= MIN_DECISION_WAIT")
	}

	seed, err := getInt64("RANDOM_SEED", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid RANDOM_SEED: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		EngineMode:      engineMode,
		NumBuyers:       numBuyers,
		NumSellers:      numSellers,
		SimDuration:     simDuration,
		MinDecisionWait: minWait,
		MaxDecisionWait: maxWait,
		RandomSeed:      seed,
		JournalPath:     getStr("JOURNAL_PATH", ""),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getInt64(key string, defaultVal int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
