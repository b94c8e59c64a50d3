package file

import (
	"net/http"
	"time"
)

// S3Config is read from the environment. Endpoint and ForcePathStyle are for
// S3-compatible services such as MinIO.
type S3Config struct {
	Bucket         string        `env:"S3_BUCKET"`
	Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string        `env:"S3_ACCESS_KEY_ID"`
	SecretKey      string        `env:"S3_SECRET_KEY"`
	Endpoint       string        `env:"S3_ENDPOINT"`
	PublicURL      string        `env:"S3_PUBLIC_URL"`
	ForcePathStyle bool          `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
	PresignTTL     time.Duration `env:"S3_PRESIGN_TTL" envDefault:"15m"`
	MaxUploadBytes int64         `env:"S3_MAX_UPLOAD_BYTES" envDefault:"5242880"`
	AllowedTypes   []string      `env:"S3_ALLOWED_TYPES" envSeparator:","`
	RequestTimeout time.Duration `env:"S3_REQUEST_TIMEOUT" envDefault:"10s"`
}

// Enabled reports whether a bucket is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Options turns the optional settings into presigner options.
func (c S3Config) Options() []S3Option {
	var opts []S3Option
	if len(c.AllowedTypes) > 0 {
		opts = append(opts, WithAllowedTypes(c.AllowedTypes...))
	}
	if c.RequestTimeout > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}))
	}
	return opts
}
