package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432", cfg.DatabaseURL)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 10, cfg.LeaderboardBatchSize)
	assert.Equal(t, 8, cfg.InviteCodeLength)
	assert.Equal(t, 5, cfg.InviteCodeAttempts)
	assert.Equal(t, 2, cfg.GroupNameMinLength)
	assert.Equal(t, "kickwager", cfg.NATSSubjectPrefix)
	assert.False(t, cfg.NATSEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432")
	t.Setenv("LEADERBOARD_BATCH_SIZE", "25")
	t.Setenv("NATS_SERVERS", "nats://localhost:4222")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.LeaderboardBatchSize)
	assert.True(t, cfg.NATSEnabled())
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENVIRONMENT", "production")

	_, err := load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate_Bounds(t *testing.T) {
	t.Run("batch size", func(t *testing.T) {
		cfg := NewTestConfig()
		cfg.LeaderboardBatchSize = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("invite code length", func(t *testing.T) {
		cfg := NewTestConfig()
		cfg.InviteCodeLength = 2
		assert.Error(t, cfg.Validate())
	})

	t.Run("test config is valid", func(t *testing.T) {
		assert.NoError(t, NewTestConfig().Validate())
	})
}
