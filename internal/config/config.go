// Package config holds compiler-wide tunables.
//
// The compiler is a library first; Load reads environment overrides for
// hosts (a CLI, a test harness) that want to configure it without
// threading a Config literal through. Default is what every package in
// this repo uses when no host is present.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the tunables governing a single compiler instance.
type Config struct {
	// Environment gates optional observability (see internal/metrics).
	Environment string

	// RecursionLimit bounds the evaluator's call stack (spec §4.G).
	RecursionLimit int

	// MaxParseErrors bounds parser error-recovery cascades (spec §4.D).
	MaxParseErrors int

	// MaxNumeratorBits is carried for hosts but read by no package in
	// this repo: internal/rat guards overflow over the full int64 range
	// regardless of this value.
	MaxNumeratorBits int
}

const (
	defaultRecursionLimit   = 512
	defaultMaxParseErrors   = 100
	defaultMaxNumeratorBits = 62
)

// Default returns the compiler's built-in tunables with no environment
// coupling. Use this when embedding the compiler as a library.
func Default() *Config {
	return &Config{
		Environment:      "development",
		RecursionLimit:   defaultRecursionLimit,
		MaxParseErrors:   defaultMaxParseErrors,
		MaxNumeratorBits: defaultMaxNumeratorBits,
	}
}

// Load builds a Config from environment variables, falling back to
// Default() for anything unset. It optionally loads a .env file the way
// the teacher's main.go does, for hosts (a CLI, CI) that configure the
// compiler via the environment rather than code.
func Load() *Config {
	_ = godotenv.Load() // no .env file is the common case

	cfg := Default()
	cfg.Environment = getEnv("MFS_ENVIRONMENT", cfg.Environment)
	cfg.RecursionLimit = getEnvInt("MFS_RECURSION_LIMIT", cfg.RecursionLimit)
	cfg.MaxParseErrors = getEnvInt("MFS_MAX_PARSE_ERRORS", cfg.MaxParseErrors)
	cfg.MaxNumeratorBits = getEnvInt("MFS_MAX_NUMERATOR_BITS", cfg.MaxNumeratorBits)
	return cfg
}

// IsProduction reports whether optional observability should be active.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}
