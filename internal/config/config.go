package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string

	JWTSecret     string
	JWTExpiry     time.Duration
	AdminPassword string

	VaultDir      string
	WatchDebounce time.Duration
	ReplayDelay   time.Duration

	LogLevel string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5431"),
		DBUser:     getEnv("DB_USER", "vaultboard_user"),
		DBPassword: getEnv("DB_PASSWORD", "vaultboard_pass"),
		DBName:     getEnv("DB_NAME", "vaultboard_db"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		JWTSecret:     getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiry:     time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),

		VaultDir:      getEnv("VAULT_DIR", "./vault"),
		WatchDebounce: time.Duration(getEnvInt("WATCH_DEBOUNCE_MS", 200)) * time.Millisecond,
		ReplayDelay:   time.Duration(getEnvInt("REPLAY_DELAY_MS", 500)) * time.Millisecond,

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Warnf("⚠️  Invalid value for %s, using default %d", key, defaultVal)
	}
	return defaultVal
}
