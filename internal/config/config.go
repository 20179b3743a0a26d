package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	JWT    JWTConfig
	CORS   CORSConfig
	Call   CallConfig
	Queue  QueueConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type MongoConfig struct {
	URI      string
	Database string
}

type JWTConfig struct {
	AccessSecret       string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// CallConfig controls call session lifecycle behaviour.
type CallConfig struct {
	// RingTimeout bounds how long a session may stay in "connecting"
	// before it is ended with endedBy=timeout.
	RingTimeout time.Duration
}

// QueueConfig controls queue engine behaviour.
type QueueConfig struct {
	// MinutesPerPatient is the per-patient service time used for wait
	// estimates.
	MinutesPerPatient int
	// WriteRetries and RetryBackoff apply to transient store failures
	// around the atomic queue writes.
	WriteRetries int
	RetryBackoff time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "medilink"),
		},
		JWT: JWTConfig{
			AccessSecret:       getEnv("JWT_ACCESS_SECRET", "your-access-secret-key"),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", "your-refresh-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("ACCESS_TOKEN_EXPIRY", "15m")),
			RefreshTokenExpiry: parseDuration(getEnv("REFRESH_TOKEN_EXPIRY", "168h")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Call: CallConfig{
			RingTimeout: parseDuration(getEnv("CALL_RING_TIMEOUT", "60s")),
		},
		Queue: QueueConfig{
			MinutesPerPatient: parseInt(getEnv("QUEUE_MINUTES_PER_PATIENT", "15"), 15),
			WriteRetries:      parseInt(getEnv("QUEUE_WRITE_RETRIES", "3"), 3),
			RetryBackoff:      parseDuration(getEnv("QUEUE_RETRY_BACKOFF", "200ms")),
		},
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		fmt.Printf("Warning: Invalid duration format '%s', using default\n", s)
		return 15 * time.Minute
	}
	return duration
}

func parseInt(s string, defaultValue int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		fmt.Printf("Warning: Invalid integer '%s', using default\n", s)
		return defaultValue
	}
	return n
}

func parseOrigins(s string) []string {
	if s == "" {
		return []string{}
	}

	origins := []string{}
	for _, part := range strings.Split(s, ",") {
		if part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}
