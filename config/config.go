// Package config holds the server settings and the command-line flags that
// populate them. Every flag can also be set from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// Storage backends.
const (
	StoreFirestore = "firestore"
	StoreSQLite    = "sqlite"
)

// Config holds server configuration.
type Config struct {
	Port int

	Store           string
	ProjectID       string
	CredentialsFile string
	DatabasePath    string

	JWTSecret  string
	BcryptCost int

	AllowedOrigins []string
	RateLimit      int // requests per second
	RateLimitBurst int

	ImageHeight     int
	ShutdownTimeout time.Duration
	LogLevel        string
}

// Default returns the settings used when no flag or variable overrides them.
func Default() *Config {
	return &Config{
		Port:            8080,
		Store:           StoreFirestore,
		ProjectID:       "recipes-433314",
		DatabasePath:    "recipes.db",
		BcryptCost:      10,
		AllowedOrigins:  []string{"*"},
		RateLimit:       100,
		RateLimitBurst:  200,
		ImageHeight:     500,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Store {
	case StoreFirestore:
		if c.ProjectID == "" {
			return errors.New("project-id is required for the firestore store")
		}
	case StoreSQLite:
		if c.DatabasePath == "" {
			return errors.New("database-path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store %q (supported: %s, %s)", c.Store, StoreFirestore, StoreSQLite)
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("jwt-secret must be at least 16 characters")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt-cost must be between 4 and 14, got %d", c.BcryptCost)
	}
	if c.RateLimit <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("rate-limit and rate-limit-burst must be positive")
	}
	if c.ImageHeight <= 0 {
		return fmt.Errorf("invalid image-height %d", c.ImageHeight)
	}
	return nil
}

// Flags returns the command-line flags, defaulted from Default.
func Flags() []cli.Flag {
	d := Default()
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Value:   d.Port,
			Usage:   "HTTP listen port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "store",
			Value:   d.Store,
			Usage:   fmt.Sprintf("Storage backend (supported values: %s, %s)", StoreFirestore, StoreSQLite),
			Sources: cli.EnvVars("RECIPES_STORE"),
		},
		&cli.StringFlag{
			Name:    "project-id",
			Value:   d.ProjectID,
			Usage:   "Google Cloud project holding the Firestore database",
			Sources: cli.EnvVars("FIRESTORE_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:    "credentials-file",
			Usage:   "Service account key file; application default credentials when empty",
			Sources: cli.EnvVars("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		&cli.StringFlag{
			Name:    "database-path",
			Value:   d.DatabasePath,
			Usage:   "SQLite database file",
			Sources: cli.EnvVars("DATABASE_PATH"),
		},
		&cli.StringFlag{
			Name:    "jwt-secret",
			Usage:   "HMAC secret for auth tokens (at least 16 characters)",
			Sources: cli.EnvVars("JWT_SECRET"),
		},
		&cli.IntFlag{
			Name:    "bcrypt-cost",
			Value:   d.BcryptCost,
			Usage:   "bcrypt cost for password hashes (4-14)",
			Sources: cli.EnvVars("BCRYPT_COST"),
		},
		&cli.StringSliceFlag{
			Name:    "allowed-origins",
			Value:   d.AllowedOrigins,
			Usage:   "CORS allowed origins",
			Sources: cli.EnvVars("ALLOWED_ORIGINS"),
		},
		&cli.IntFlag{
			Name:    "rate-limit",
			Value:   d.RateLimit,
			Usage:   "Requests per second accepted by the API",
			Sources: cli.EnvVars("RATE_LIMIT"),
		},
		&cli.IntFlag{
			Name:    "rate-limit-burst",
			Value:   d.RateLimitBurst,
			Usage:   "Burst size of the API rate limiter",
			Sources: cli.EnvVars("RATE_LIMIT_BURST"),
		},
		&cli.IntFlag{
			Name:    "image-height",
			Value:   d.ImageHeight,
			Usage:   "Default height in pixels of recipe image thumbnails",
			Sources: cli.EnvVars("IMAGE_HEIGHT"),
		},
		&cli.DurationFlag{
			Name:    "shutdown-timeout",
			Value:   d.ShutdownTimeout,
			Usage:   "Grace period for in-flight requests on shutdown",
			Sources: cli.EnvVars("SHUTDOWN_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   d.LogLevel,
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}
}

// FromCommand reads the flags registered by Flags.
func FromCommand(cmd *cli.Command) *Config {
	return &Config{
		Port:            cmd.Int("port"),
		Store:           cmd.String("store"),
		ProjectID:       cmd.String("project-id"),
		CredentialsFile: cmd.String("credentials-file"),
		DatabasePath:    cmd.String("database-path"),
		JWTSecret:       cmd.String("jwt-secret"),
		BcryptCost:      cmd.Int("bcrypt-cost"),
		AllowedOrigins:  cmd.StringSlice("allowed-origins"),
		RateLimit:       cmd.Int("rate-limit"),
		RateLimitBurst:  cmd.Int("rate-limit-burst"),
		ImageHeight:     cmd.Int("image-height"),
		ShutdownTimeout: cmd.Duration("shutdown-timeout"),
		LogLevel:        cmd.String("log-level"),
	}
}
