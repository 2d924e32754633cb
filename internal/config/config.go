// Package config loads runtime configuration from the environment,
// optionally seeded from a local .env file.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/dmforge/dm-api/internal/errors"
)

// Config is everything the game master needs to run. Variables are
// prefixed with DM_, e.g. DM_OPENAI_API_KEY.
type Config struct {
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	// ContextTokens bounds every assembled narrative context
	ContextTokens int `envconfig:"CONTEXT_TOKENS" default:"2048"`

	// NarrativeTimeout bounds each narrative call attempt
	NarrativeTimeout time.Duration `envconfig:"NARRATIVE_TIMEOUT" default:"30s"`
	// NarrativeRetries is how many times a transient narrative failure
	// is retried before surfacing to the player
	NarrativeRetries uint64 `envconfig:"NARRATIVE_RETRIES" default:"2"`
}

// Load reads .env when present, then the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("dm", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process environment config")
	}
	return &cfg, nil
}
