package auth

import (
	"errors"
	"time"
)

// Config holds token and lifecycle settings loaded from the environment.
type Config struct {
	AccessTokenSecret  string        `env:"AUTH_ACCESS_TOKEN_SECRET,required"`
	RefreshTokenSecret string        `env:"AUTH_REFRESH_TOKEN_SECRET,required"`
	Issuer             string        `env:"AUTH_ISSUER" envDefault:"identity"`
	AccessTokenTTL     time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL    time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" envDefault:"168h"`
	VerifyEmailTTL     time.Duration `env:"AUTH_VERIFY_EMAIL_TTL" envDefault:"24h"`
	ResetPasswordTTL   time.Duration `env:"AUTH_RESET_PASSWORD_TTL" envDefault:"1h"`
	BcryptCost         int           `env:"AUTH_BCRYPT_COST" envDefault:"10"`
	PasswordMinLength  int           `env:"AUTH_PASSWORD_MIN_LENGTH" envDefault:"6"`
	NotifyTimeout      time.Duration `env:"AUTH_NOTIFY_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig returns the environment defaults with the given secrets.
func DefaultConfig(accessSecret, refreshSecret string) Config {
	return Config{
		AccessTokenSecret:  accessSecret,
		RefreshTokenSecret: refreshSecret,
		Issuer:             "identity",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    7 * 24 * time.Hour,
		VerifyEmailTTL:     24 * time.Hour,
		ResetPasswordTTL:   time.Hour,
		BcryptCost:         10,
		PasswordMinLength:  6,
		NotifyTimeout:      10 * time.Second,
	}
}

func (c Config) validate() error {
	var errs []error
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("access and refresh token secrets are required"))
	}
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.VerifyEmailTTL <= 0 || c.ResetPasswordTTL <= 0 {
		errs = append(errs, errors.New("ephemeral token lifetimes must be positive"))
	}
	if c.PasswordMinLength < 1 || c.PasswordMinLength > maxPasswordLength {
		errs = append(errs, errors.New("password minimum length is out of range"))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
}

// ErrInvalidConfig is returned by New for unusable settings.
var ErrInvalidConfig = errors.New("invalid auth configuration")
