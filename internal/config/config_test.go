package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("VAULT_ENABLED", "false")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, int64(5<<20), cfg.Profile.MaxPhotoBytes)
	assert.False(t, cfg.Vault.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("VAULT_ENABLED", "false")
	t.Setenv("SCHEDULER_STALE_AFTER", "72h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RATE_LIMIT_REQUESTS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 72*time.Hour, cfg.Scheduler.StaleAfter)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
}

func TestValidateVaultToken(t *testing.T) {
	cfg := &Config{
		JWT:   JWTConfig{Secret: "secret"},
		Vault: VaultConfig{Enabled: true},
	}

	require.Error(t, cfg.Validate())

	cfg.Vault.Token = "root"
	require.NoError(t, cfg.Validate())
}

func TestValidateScheduler(t *testing.T) {
	cfg := &Config{
		JWT: JWTConfig{Secret: "secret"},
		Scheduler: SchedulerConfig{
			EnableReminders:  true,
			ReminderInterval: time.Hour,
		},
	}

	assert.EqualError(t, cfg.Validate(), "SCHEDULER_STALE_AFTER must be positive")

	cfg.Scheduler.StaleAfter = -time.Hour
	assert.Error(t, cfg.Validate())

	cfg.Scheduler.StaleAfter = 72 * time.Hour
	require.NoError(t, cfg.Validate())

	cfg.Scheduler.EnableReminders = false
	cfg.Scheduler.StaleAfter = 0
	require.NoError(t, cfg.Validate())
}
