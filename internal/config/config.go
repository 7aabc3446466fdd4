package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	HTTPPort    string
	DatabaseDSN string
	Env         string
	AutoMigrate bool
}

// Production reports whether the service runs with production settings.
func (c Config) Production() bool { return c.Env == "production" }

// Load reads configuration from environment variables with reasonable
// defaults. A .env file in the working directory is loaded first when
// present; variables already set in the environment win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:    getEnv("HTTP_PORT", "8081"),
		DatabaseDSN: getEnv("DATABASE_DSN", "file:shopbooks.db?_foreign_keys=on"),
		Env:         getEnv("APP_ENV", "development"),
		AutoMigrate: parseBool("DB_AUTO_MIGRATE", true),
	}

	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8081", cfg.HTTPPort)
		cfg.HTTPPort = "8081"
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}
