package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cellar-service", cfg.App.Name)
	assert.Equal(t, 60, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, 168, cfg.Auth.RefreshTokenTTLHours)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "keystore.p12", cfg.Keystore.Path)
	assert.Equal(t, 10.0, cfg.Alerts.TemperatureMin)
	assert.Equal(t, 16.0, cfg.Alerts.TemperatureMax)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("AUTH_SWEEP_INTERVAL_MINUTES", "5")
	t.Setenv("KEYSTORE_KEY_ALIAS", "cellar")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 5*time.Minute, cfg.Auth.SweepInterval())
	assert.Equal(t, "cellar", cfg.Keystore.KeyAlias)
}

func TestDurationFallbacks(t *testing.T) {
	var auth AuthConfig

	assert.Equal(t, time.Hour, auth.AccessTokenTTL())
	assert.Equal(t, 168*time.Hour, auth.RefreshTokenTTL())
	assert.Equal(t, time.Hour, auth.SweepInterval())
}

func TestAppAddr(t *testing.T) {
	app := AppConfig{Host: "127.0.0.1", Port: "9090"}
	assert.Equal(t, "127.0.0.1:9090", app.Addr())
}
