package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting the application reads from the
// environment.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	PayFlowBaseURL        string
	PayFlowAPIKey         string
	PayFlowRatePerMinute  int
	PayFlowPollInterval   time.Duration
	PayFlowPollAttempts   int

	FCMCredentialsFile string
}

// Load reads configuration from environment variables, optionally seeded
// from a local .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	ratePerMinute, err := intEnv("PAYFLOW_RATE_PER_MINUTE", 60)
	if err != nil {
		return nil, err
	}

	pollSeconds, err := intEnv("PAYFLOW_POLL_INTERVAL_SECONDS", 10)
	if err != nil {
		return nil, err
	}

	pollAttempts, err := intEnv("PAYFLOW_POLL_ATTEMPTS", 24)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		JWTSecretKey: jwtKey,
		ServerPort:   port,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),

		PayFlowBaseURL:       os.Getenv("PAYFLOW_BASE_URL"),
		PayFlowAPIKey:        os.Getenv("PAYFLOW_API_KEY"),
		PayFlowRatePerMinute: ratePerMinute,
		PayFlowPollInterval:  time.Duration(pollSeconds) * time.Second,
		PayFlowPollAttempts:  pollAttempts,

		FCMCredentialsFile: os.Getenv("FCM_CREDENTIALS_FILE"),
	}

	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}
