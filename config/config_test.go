package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func parse(t *testing.T, args ...string) *Config {
	t.Helper()

	var cfg *Config
	cmd := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg = FromCommand(cmd)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
	return cfg
}

func TestDefaultsMatchFlags(t *testing.T) {
	cfg := parse(t)
	d := Default()

	assert.Equal(t, d.Port, cfg.Port)
	assert.Equal(t, d.Store, cfg.Store)
	assert.Equal(t, d.ProjectID, cfg.ProjectID)
	assert.Equal(t, d.BcryptCost, cfg.BcryptCost)
	assert.Equal(t, d.AllowedOrigins, cfg.AllowedOrigins)
	assert.Equal(t, d.ImageHeight, cfg.ImageHeight)
	assert.Equal(t, d.ShutdownTimeout, cfg.ShutdownTimeout)
}

func TestFlagsOverrideDefaults(t *testing.T) {
	cfg := parse(t,
		"--port", "9090",
		"--store", "sqlite",
		"--database-path", "/tmp/r.db",
		"--jwt-secret", "0123456789abcdef",
		"--allowed-origins", "http://localhost:3000",
		"--shutdown-timeout", "3s",
	)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/tmp/r.db", cfg.DatabasePath)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("RECIPES_STORE", "sqlite")
	t.Setenv("JWT_SECRET", "from-the-environment")

	cfg := parse(t)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "from-the-environment", cfg.JWTSecret)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.JWTSecret = "0123456789abcdef"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults with secret", func(*Config) {}, false},
		{"sqlite", func(c *Config) { c.Store = StoreSQLite }, false},
		{"bad port", func(c *Config) { c.Port = 0 }, true},
		{"unknown store", func(c *Config) { c.Store = "mongo" }, true},
		{"missing project", func(c *Config) { c.ProjectID = "" }, true},
		{"missing database path", func(c *Config) { c.Store = StoreSQLite; c.DatabasePath = "" }, true},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"low bcrypt cost", func(c *Config) { c.BcryptCost = 3 }, true},
		{"high bcrypt cost", func(c *Config) { c.BcryptCost = 15 }, true},
		{"zero rate limit", func(c *Config) { c.RateLimit = 0 }, true},
		{"zero image height", func(c *Config) { c.ImageHeight = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
