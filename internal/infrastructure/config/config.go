package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend selectors
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerPort int

	// Storage configuration
	StorageBackend string
	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	DBAutoMigrate  bool
	SeedFile       string

	// Authorization code configuration
	CodeLength int

	// Token configuration
	AccessTokenValidity time.Duration
	SweepInterval       time.Duration
	TokenCipherKey      string

	// Signing key configuration
	SigningKeyCount int
	RSAKeySize      int

	// RISC delivery configuration
	RISCIssuer      string
	RISCBackoff     time.Duration
	RISCMaxAttempts int
	RISCWorkers     int
	RISCTimeout     time.Duration

	// Account linking configuration
	LinkingClientID   string
	AssertionIssuer   string
	AssertionAudience string
	AssertionJWKSURL  string
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		ServerPort:          8080,
		StorageBackend:      BackendMemory,
		DBPort:              5432,
		CodeLength:          10,
		AccessTokenValidity: 10 * time.Minute,
		SweepInterval:       time.Hour,
		SigningKeyCount:     3,
		RSAKeySize:          2048,
		RISCBackoff:         10 * time.Minute,
		RISCMaxAttempts:     4,
		RISCWorkers:         8,
		RISCTimeout:         10 * time.Second,
		LinkingClientID:     "linking-client",
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env from project root
	_ = godotenv.Load()

	accessValidity, err := time.ParseDuration(getEnv("ACCESS_TOKEN_VALIDITY", "10m"))
	if err != nil {
		return nil, err
	}

	sweepInterval, err := time.ParseDuration(getEnv("TOKEN_SWEEP_INTERVAL", "1h"))
	if err != nil {
		return nil, err
	}

	riscBackoff, err := time.ParseDuration(getEnv("RISC_RETRY_BACKOFF", "10m"))
	if err != nil {
		return nil, err
	}

	riscTimeout, err := time.ParseDuration(getEnv("RISC_HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:     getEnvInt("PORT", 8080),
		StorageBackend: getEnv("STORAGE_BACKEND", BackendMemory),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnvInt("DB_PORT", 5432),
		DBUser:         getEnv("DB_USER", "owner"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "oauth2"),
		DBAutoMigrate:  getEnvBool("DB_AUTO_MIGRATE", false),
		SeedFile:       getEnv("SEED_FILE", ""),

		CodeLength: getEnvInt("AUTHORIZATION_CODE_LENGTH", 10),

		AccessTokenValidity: accessValidity,
		SweepInterval:       sweepInterval,
		TokenCipherKey:      getEnv("TOKEN_CIPHER_KEY", ""),

		SigningKeyCount: getEnvInt("SIGNING_KEY_COUNT", 3),
		RSAKeySize:      getEnvInt("RSA_KEY_SIZE", 2048),

		RISCIssuer:      getEnv("RISC_ISSUER", "oauth2-server"),
		RISCBackoff:     riscBackoff,
		RISCMaxAttempts: getEnvInt("RISC_MAX_ATTEMPTS", 4),
		RISCWorkers:     getEnvInt("RISC_WORKERS", 8),
		RISCTimeout:     riscTimeout,

		LinkingClientID:   getEnv("LINKING_CLIENT_ID", "linking-client"),
		AssertionIssuer:   getEnv("ASSERTION_ISSUER", "https://accounts.google.com"),
		AssertionAudience: getEnv("ASSERTION_AUDIENCE", ""),
		AssertionJWKSURL:  getEnv("ASSERTION_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs"),
	}, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
