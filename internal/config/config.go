package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig gathers everything the habit store host needs to start.
type AppConfig struct {
	Port           string
	GinMode        string
	WidgetBridge   bool
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	EmbeddedDriver string
	EmbeddedDSN    string
}

// Load reads the configuration from the environment, after merging a .env
// file when one is present. Variables already set win over the file.
func Load(envFiles ...string) AppConfig {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		log.Printf("[CONFIG] Could not read env file: %v", err)
	}

	port := getenv("PORT", "8080")
	ginMode := getenv("GIN_MODE", "release")

	bridge, err := strconv.ParseBool(getenv("HABITS_WIDGET_BRIDGE", "false"))
	if err != nil {
		log.Printf("[CONFIG] Invalid HABITS_WIDGET_BRIDGE, widget bridge disabled: %v", err)
		bridge = false
	}

	redisDB, err := strconv.Atoi(getenv("REDIS_DB", "0"))
	if err != nil {
		log.Printf("[CONFIG] Invalid REDIS_DB, using 0: %v", err)
		redisDB = 0
	}

	return AppConfig{
		Port:           port,
		GinMode:        ginMode,
		WidgetBridge:   bridge,
		RedisHost:      getenv("REDIS_HOST", "localhost"),
		RedisPort:      getenv("REDIS_PORT", "6379"),
		RedisPassword:  strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		RedisDB:        redisDB,
		EmbeddedDriver: getenv("EMBEDDED_DRIVER", "sqlite"),
		EmbeddedDSN:    getenv("EMBEDDED_DSN", "habits.db"),
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
