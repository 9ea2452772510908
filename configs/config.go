package config

import (
	"os"
	"strconv"
)

// AutoSchedule holds the slot-search knobs. Hours are local hours in the
// user's timezone (fixed offset, no DST).
type AutoSchedule struct {
	QuietStartHour int
	QuietEndHour   int
	MinGapMinutes  int
	SlotMinutes    int
	MaxSearchDays  int
}

type Config struct {
	XClientID     string
	XClientSecret string
	XRedirectURI  string
	XScopes       string
	PostgresURI   string
	RedisURI      string
	FrontendURL   string
	PushGateway   string
	PushAuthKey   string
	EncryptionKey string
	SecretKey     string
	CookieName    string
	SweepSpec     string
	AutoSchedule  AutoSchedule
}

func LoadConfig() *Config {
	return &Config{
		XClientID:     getEnv("X_CLIENT_ID", ""),
		XClientSecret: getEnv("X_CLIENT_SECRET", ""),
		XRedirectURI:  getEnv("X_REDIRECT_URI", "http://localhost:3000/login/callback"),
		XScopes:       getEnv("X_SCOPES", "tweet.read tweet.write users.read offline.access"),
		PostgresURI:   getEnv("POSTGRES_URI", ""),
		RedisURI:      getEnv("REDIS_URI", "127.0.0.1:6379"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:5173"),
		PushGateway:   getEnv("PUSH_GATEWAY_URL", ""),
		PushAuthKey:   getEnv("PUSH_GATEWAY_KEY", ""),
		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		SecretKey:     getEnv("SECRET_KEY", ""),
		CookieName:    getEnv("COOKIE_NAME", "xflow_session"),
		SweepSpec:     getEnv("SWEEP_SPEC", "@every 0h1m0s"),
		AutoSchedule: AutoSchedule{
			QuietStartHour: getEnvInt("QUIET_START_HOUR", 23),
			QuietEndHour:   getEnvInt("QUIET_END_HOUR", 8),
			MinGapMinutes:  getEnvInt("MIN_GAP_MINUTES", 45),
			SlotMinutes:    getEnvInt("SLOT_MINUTES", 15),
			MaxSearchDays:  getEnvInt("MAX_SEARCH_DAYS", 30),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
