package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"8080"`
	AppEnv   string `env:"APP_ENV" envDefault:"prod"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	// Keycloak is optional; it is registered only when an issuer is set.
	KeycloakIssuer        string `env:"KEYCLOAK_ISSUER"`
	KeycloakClientID      string `env:"KEYCLOAK_CLIENT_ID"`
	KeycloakRedirectURL   string `env:"KEYCLOAK_REDIRECT_URL"`
	KeycloakPublicBaseURL string `env:"KEYCLOAK_PUBLIC_BASE_URL"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	DatabaseDSN string `env:"DATABASE_DSN"`

	// SessionTTL is the absolute session lifetime; SessionIdleTimeout ends
	// sessions without activity sooner.
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"2h"`
	CookieSecure       bool          `env:"COOKIE_SECURE" envDefault:"true"`
	GuardWaitTimeout   time.Duration `env:"GUARD_WAIT_TIMEOUT" envDefault:"5s"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// KeycloakEnabled reports whether the optional Keycloak provider is configured.
func (c Config) KeycloakEnabled() bool {
	return c.KeycloakIssuer != ""
}

func (c Config) validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("config: DATABASE_DSN is required")
	}
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" || c.GoogleRedirectURL == "" {
		return errors.New("config: GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL are required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.SessionIdleTimeout < 0 {
		return fmt.Errorf("config: SESSION_IDLE_TIMEOUT must not be negative, got %s", c.SessionIdleTimeout)
	}
	if c.GuardWaitTimeout <= 0 {
		return fmt.Errorf("config: GUARD_WAIT_TIMEOUT must be positive, got %s", c.GuardWaitTimeout)
	}
	return nil
}
