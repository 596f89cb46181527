package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is read once at startup from the environment.
type Config struct {
	Port          string
	AllowedOrigin string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthSecret            string
	AccessTokenTTLMinutes int

	// Timezone defines local midnight for the summary windows and the
	// daily digest, e.g. "Asia/Jakarta". Empty means UTC.
	Timezone string

	AlertCacheTTLSeconds int
	DigestHour           int
}

func Load() Config {
	return Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		AuthSecret:            os.Getenv("AUTH_SECRET"),
		AccessTokenTTLMinutes: getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 60),
		Timezone:              os.Getenv("TIMEZONE"),
		AlertCacheTTLSeconds:  getEnvInt("ALERT_CACHE_TTL_SECONDS", 30),
		DigestHour:            getEnvInt("DIGEST_HOUR", 21),
	}
}

func (c Config) Address() string {
	return ":" + c.Port
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c Config) AlertCacheTTL() time.Duration {
	return time.Duration(c.AlertCacheTTLSeconds) * time.Second
}

// Location resolves the configured timezone, falling back to UTC on an
// unknown name.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnv(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
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
