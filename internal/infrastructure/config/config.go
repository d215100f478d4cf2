package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`

	// Base paths for the two route groups, configuration-driven like the
	// rest of the deployment surface.
	UserBasePath  string `env:"USER_BASE_PATH,  default=/users"`
	PlaceBasePath string `env:"PLACE_BASE_PATH, default=/places"`

	// CascadeStrategy is "delta" (historical additive behavior) or
	// "recompute" (sum of direct children).
	CascadeStrategy string `env:"CASCADE_STRATEGY, default=delta"`

	Mongo MongoConfig
	Redis RedisConfig
	Audit AuditConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=population_system"`
	// Transactions requires a replica set; when off, the cascade write pair
	// is applied without rollback protection.
	Transactions bool `env:"MONGO_TRANSACTIONS, default=false"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
