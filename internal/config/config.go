package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	DatabaseURL  string
	HTTPAddr     string
	LogLevel     string
	TxMaxRetries uint64
	PasswordCost int
}

// Load reads .env, when present, and then the process environment.
// Variables already set in the environment win over .env.
func Load(files ...string) (Config, error) {
	// a missing .env file is not an error
	_ = godotenv.Load(files...)

	cfg := Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8000"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		TxMaxRetries: 3,
	}

	if v := os.Getenv("LEDGER_TX_MAX_RETRIES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("LEDGER_TX_MAX_RETRIES: %w", err)
		}
		cfg.TxMaxRetries = n
	}
	if v := os.Getenv("LEDGER_PASSWORD_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("LEDGER_PASSWORD_COST: %w", err)
		}
		if n < bcrypt.MinCost || n > bcrypt.MaxCost {
			return Config{}, fmt.Errorf("LEDGER_PASSWORD_COST: %d is outside %d..%d", n, bcrypt.MinCost, bcrypt.MaxCost)
		}
		cfg.PasswordCost = n
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
