package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config stores all configuration of the application
type Config struct {
	// Environment type: LOCAL or SERVER
	EnvType string

	// Database
	DBDriver        string // mysql, postgres or sqlite
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	DBMigrationMode string // "auto"(默认) or "drop"

	// Server
	ServerPort string
	CORSOrigin string
	LogLevel   string

	// Redis, optional. An empty host disables the settings cache and webhook queue.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MQTT, optional. An empty broker URL disables the MQTT broadcaster.
	MQTTBrokerURL   string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTQoS         int
	MQTTTopicPrefix string

	// JWT Authentication
	JWTSecretKey       string
	JWTExpirationHours int

	// Discord webhook used for 911 call and panic button notifications
	DiscordWebhookURL string

	// Owner account seeded on an empty database
	DefaultOwnerPassword string
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	envType := strings.ToUpper(getEnv("ENV_TYPE", "LOCAL"))
	prefix := ""

	switch envType {
	case "LOCAL":
		prefix = "LOCAL_"
	case "SERVER":
		prefix = "SERVER_"
	default:
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	driver := strings.ToLower(getPrefixed(prefix, "DB_DRIVER", "postgres"))

	cfg := &Config{
		EnvType: envType,

		DBDriver:        driver,
		DBName:          getPrefixed(prefix, "DB_NAME", "snaily_cad"),
		DBMigrationMode: getPrefixed(prefix, "DB_MIGRATION_MODE", "auto"),

		ServerPort: getPrefixed(prefix, "SERVER_PORT", "8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:3000"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		RedisHost:     getPrefixed(prefix, "REDIS_HOST", ""),
		RedisPort:     getPrefixed(prefix, "REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		MQTTBrokerURL:   getEnv("MQTT_BROKER_URL", ""),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "snaily_cad"),
		MQTTUsername:    getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("MQTT_PASSWORD", ""),
		MQTTQoS:         getEnvAsInt("MQTT_QOS", 1),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "snaily-cad/events"),

		JWTSecretKey:       getEnv("JWT_SECRET_KEY", "snaily-cad-secret-change-in-production"),
		JWTExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),

		DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),

		DefaultOwnerPassword: getEnv("DEFAULT_OWNER_PASSWORD", ""),
	}

	// sqlite only needs a file name
	if driver != "sqlite" {
		cfg.DBHost = getRequired(prefix, "DB_HOST")
		cfg.DBUser = getRequired(prefix, "DB_USER")
		cfg.DBPassword = getRequired(prefix, "DB_PASSWORD")
		cfg.DBPort = getRequired(prefix, "DB_PORT")
	}

	fmt.Printf("Loading configuration for environment: %s (db driver %s)\n", envType, driver)
	return cfg
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetDSN returns the database connection string for the configured driver
func (c *Config) GetDSN() string {
	switch c.DBDriver {
	case "mysql":
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local"
	case "sqlite":
		return c.DBName + ".db"
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
	}
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// RedisEnabled reports whether a Redis host was configured
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// MQTTEnabled reports whether an MQTT broker was configured
func (c *Config) MQTTEnabled() bool {
	return c.MQTTBrokerURL != ""
}

// getPrefixed reads PREFIX_KEY, then KEY, then the default
func getPrefixed(prefix, key, defaultValue string) string {
	return getEnv(prefix+key, getEnv(key, defaultValue))
}

func getRequired(prefix, key string) string {
	if value := getPrefixed(prefix, key, ""); value != "" {
		return value
	}
	panic(fmt.Sprintf("Required environment variable %s%s is not set", prefix, key))
}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
