package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server reads from the environment.
// GEMINI_API_KEY is the only hard requirement; everything else has a
// workable default for local development.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY,required,notEmpty"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	ModelName  string `env:"MODEL_NAME" envDefault:"gemini-2.5-flash"`
	MaxContext int    `env:"MAX_CONTEXT" envDefault:"20"`

	Host string `env:"HOST"`
	Port int    `env:"PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.MaxContext <= 0 {
		return nil, fmt.Errorf("MAX_CONTEXT must be positive, got %d", cfg.MaxContext)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
