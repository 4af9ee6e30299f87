package config

import (
	"os"
	"strings"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// DocBackend selects the partition persistence: "dynamo" (default) or
	// "redis" for local development. The Redis change bus is used either way.
	DocBackend string

	AWSRegion             string
	AWSEndpointURL        string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID        string
	AWSSecretKey          string
	DynamoTablePartitions string

	RedisAddr     string
	RedisPassword string

	SNSRegion   string
	SNSTopicARN string // empty disables emergency push fan-out

	JWTPublicKeyPath string

	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:    getEnv("APP_PORT", "3000"),
		AppEnv:     getEnv("APP_ENV", "development"),
		DocBackend: getEnv("DOC_BACKEND", "dynamo"),

		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:        getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:          getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTablePartitions: getEnv("DYNAMO_TABLE_PARTITIONS", "announcement_partitions"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		SNSRegion:   getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN: getEnv("SNS_TOPIC_ARN", ""),

		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
