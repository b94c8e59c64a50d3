package main

import (
	"fmt"
	"time"
)

// Store drivers.
const (
	driverMemory        = "memory"
	driverPostgres      = "postgres"
	driverPostgresRedis = "postgres_redis"
)

// appConfig holds process level settings. Component configs are loaded on
// demand so that, for example, DATABASE_URL is only required when a postgres
// driver is selected.
type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"identity"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver     string        `env:"STORE_DRIVER" envDefault:"postgres"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"10m"`
	ReadyTimeout    time.Duration `env:"HEALTH_READY_TIMEOUT" envDefault:"2s"`

	// RefreshCookie enables the encrypted refresh token cookie; it needs
	// COOKIE_SECRETS.
	RefreshCookie     bool   `env:"REFRESH_COOKIE_ENABLED" envDefault:"false"`
	RefreshCookieName string `env:"REFRESH_COOKIE_NAME" envDefault:"refresh_token"`
	RefreshHeaderName string `env:"REFRESH_HEADER_NAME" envDefault:"X-Refresh-Token"`

	// TrustProxyHeaders reads the client IP from CF-Connecting-IP,
	// X-Forwarded-For and similar headers. Enable only behind a proxy.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
	RateLimitEnabled  bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
}

func (c appConfig) validate() error {
	switch c.StoreDriver {
	case driverMemory, driverPostgres, driverPostgresRedis:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JanitorInterval <= 0 {
		return fmt.Errorf("JANITOR_INTERVAL must be positive")
	}
	return nil
}
