package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is the placeholder secret; the server refuses it outside development.
const DefaultJWTSecret = "change-me"

// Config holds application level configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	ServerPort       string
	DBDriver         string
	DBDSN            string
	RedisAddr        string
	RedisDB          int
	RedisPass        string
	JWTSecret        string
	JWTIssuer        string
	JWTAudience      string
	GeofenceCacheTTL time.Duration
	SwaggerHost      string
	ResetDB          bool
}

// ClientConfig holds settings of the check-in client.
type ClientConfig struct {
	APIURL      string
	DBPath      string
	HTTPTimeout time.Duration
}

// Load builds Config from environment with sensible defaults. A .env file in
// the working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	dsn := getEnv("DB_DSN", os.Getenv("MYSQL_DSN"))
	if dsn == "" {
		dsn = "user:password@tcp(localhost:3306)/checador?charset=utf8mb4&parseTime=True&loc=UTC"
	}

	return &Config{
		AppEnv:           getEnv("APP_ENV", "production"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		DBDriver:         getEnv("DB_DRIVER", "mysql"),
		DBDSN:            dsn,
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisPass:        os.Getenv("REDIS_PASSWORD"),
		JWTSecret:        getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTIssuer:        getEnv("JWT_ISSUER", "checador-api"),
		JWTAudience:      getEnv("JWT_AUDIENCE", "checador-mobile"),
		GeofenceCacheTTL: getEnvDuration("GEOFENCE_CACHE_TTL", 5*time.Minute),
		SwaggerHost:      os.Getenv("SWAGGER_HOST"),
		ResetDB:          os.Getenv("RESET_DB") == "true",
	}
}

// LoadClient builds ClientConfig from environment.
func LoadClient() *ClientConfig {
	_ = godotenv.Load()

	return &ClientConfig{
		APIURL:      getEnv("CHECKIN_API_URL", "http://localhost:8080/api"),
		DBPath:      getEnv("CHECKIN_DB_PATH", "checkin.db"),
		HTTPTimeout: getEnvDuration("CHECKIN_HTTP_TIMEOUT", 10*time.Second),
	}
}

// InsecureSecret reports whether the placeholder JWT secret is in use outside development.
func (c *Config) InsecureSecret() bool {
	return c.JWTSecret == DefaultJWTSecret && c.AppEnv != "development"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
