package config

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port          string
	BaseURL       string
	DatabasePath  string
	InviteCode    string
	SessionSecret string
	SessionTTL    time.Duration
	BcryptCost    int
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),
		DatabasePath:  getEnv("DATABASE_PATH", "shorts.db"),
		InviteCode:    getEnv("SHORTS_INVITE", ""),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvDuration("SESSION_TTL_HOURS", 7*24*time.Hour),
		BcryptCost:    getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if hours, err := strconv.ParseFloat(val, 64); err == nil {
			return time.Duration(hours * float64(time.Hour))
		}
	}
	return fallback
}
