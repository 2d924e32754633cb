package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmforge/dm-api/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DM_OPENAI_API_KEY", "sk-test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 2048, cfg.ContextTokens)
	assert.Equal(t, 30*time.Second, cfg.NarrativeTimeout)
	assert.Equal(t, uint64(2), cfg.NarrativeRetries)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DM_OPENAI_API_KEY", "sk-test")
	t.Setenv("DM_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("DM_CONTEXT_TOKENS", "512")
	t.Setenv("DM_NARRATIVE_TIMEOUT", "5s")
	t.Setenv("DM_NARRATIVE_RETRIES", "0")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr)
	assert.Equal(t, 512, cfg.ContextTokens)
	assert.Equal(t, 5*time.Second, cfg.NarrativeTimeout)
	assert.Equal(t, uint64(0), cfg.NarrativeRetries)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	// t.Setenv registers the restore; the unset makes the variable
	// genuinely absent rather than empty.
	t.Setenv("DM_OPENAI_API_KEY", "placeholder")
	require.NoError(t, os.Unsetenv("DM_OPENAI_API_KEY"))

	_, err := config.Load()
	assert.Error(t, err)
}
