package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port           int    `validate:"min=1,max=65535"`
	APIKey         string `validate:"required"`
	LogLevel       string `validate:"oneof=debug info warn warning error"`
	LogFormat      string `validate:"oneof=text json"`
	LogDir         string `validate:"required"`
	Environment    string `validate:"required"`
	Version        string
	TrustedProxies []string

	// Idempotency cache bounds. Entries older than IdempotencyTTL are evicted.
	IdempotencyCacheSize int           `validate:"min=1"`
	IdempotencyTTL       time.Duration `validate:"gt=0"`

	// World bridge deadline per spawn/despawn call.
	BridgeTimeout time.Duration `validate:"gt=0"`

	WorkerCount      int `validate:"min=1"`
	WorkerQueueSize  int `validate:"min=1"`
	PacketsPerSecond int `validate:"min=1"`

	ItemDefsPath    string
	DefaultStackMax uint32  `validate:"min=1"`
	BackpackWidth   uint32  `validate:"min=1,max=255"`
	BackpackHeight  uint32  `validate:"min=1,max=255"`
	PickupRadius    float64 `validate:"gte=0"`

	// Dropped items older than DropTTL are despawned every DropSweepInterval.
	DropTTL           time.Duration `validate:"gt=0"`
	DropSweepInterval time.Duration `validate:"gt=0"`

	// DevAuth accepts "dev:<entityID>" tokens on the websocket gateway.
	DevAuth bool
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", DefaultPort))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}

	cfg := &Config{
		Port:                 port,
		APIKey:               getEnv("API_KEY", ""),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", DefaultLogLevel)),
		LogFormat:            strings.ToLower(getEnv("LOG_FORMAT", DefaultLogFormat)),
		LogDir:               getEnv("LOG_DIR", DefaultLogDir),
		Environment:          getEnv("ENVIRONMENT", DefaultEnvironment),
		Version:              getEnv("VERSION", DefaultVersion),
		TrustedProxies:       getEnvAsList("TRUSTED_PROXIES"),
		IdempotencyCacheSize: getEnvAsInt("IDEMPOTENCY_CACHE_SIZE", DefaultIdempotencyCacheSize),
		IdempotencyTTL:       getEnvAsDuration("IDEMPOTENCY_TTL", DefaultIdempotencyTTL),
		BridgeTimeout:        getEnvAsDuration("BRIDGE_TIMEOUT", DefaultBridgeTimeout),
		WorkerCount:          getEnvAsInt("WORKER_COUNT", DefaultWorkerCount),
		WorkerQueueSize:      getEnvAsInt("WORKER_QUEUE_SIZE", DefaultWorkerQueueSize),
		PacketsPerSecond:     getEnvAsInt("PACKETS_PER_SECOND", DefaultPacketsPerSecond),
		ItemDefsPath:         getEnv("ITEM_DEFS_PATH", DefaultItemDefsPath),
		DefaultStackMax:      uint32(getEnvAsInt("DEFAULT_STACK_MAX", DefaultStackMax)),
		BackpackWidth:        uint32(getEnvAsInt("BACKPACK_WIDTH", DefaultBackpackSize)),
		BackpackHeight:       uint32(getEnvAsInt("BACKPACK_HEIGHT", DefaultBackpackSize)),
		PickupRadius:         getEnvAsFloat("PICKUP_RADIUS", DefaultPickupRadius),
		DropTTL:              getEnvAsDuration("DROP_TTL", DefaultDropTTL),
		DropSweepInterval:    getEnvAsDuration("DROP_SWEEP_INTERVAL", DefaultDropSweepInterval),
		DevAuth:              getEnvAsBool("DEV_AUTH", false),
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags on cfg.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvAsBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
