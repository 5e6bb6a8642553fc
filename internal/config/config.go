// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all process-level settings.
type Config struct {
	Addr        string        `env:"ADDR" envDefault:":8080"`
	MongoURI    string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB     string        `env:"MONGO_DB" envDefault:"identity"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	MemoryStore bool          `env:"MEMORY_STORE" envDefault:"false"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
