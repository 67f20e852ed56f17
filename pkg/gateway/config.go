package gateway

import (
	"os"
	"time"

	"github.com/marmos91/awsasync/internal/logger"
)

// EnvJWTSecret overrides Config.JWTSecret when set.
const EnvJWTSecret = "AWSASYNC_GATEWAY_JWT_SECRET"

// MinJWTSecretLength is the shortest HMAC key the gateway accepts.
const MinJWTSecretLength = 32

// Config configures the gateway HTTP server.
type Config struct {
	// Port is the HTTP port for the gateway.
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port" json:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 60s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" json:"idle_timeout"`

	// RequestTimeout bounds how long a single invoke may await its counterpart.
	// Default: 30s
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" json:"request_timeout"`

	// JWTSecret enables HS256 bearer authentication on /api/v1 when set.
	// Can also be set via AWSASYNC_GATEWAY_JWT_SECRET, which takes precedence.
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32" yaml:"jwt_secret,omitempty" json:"-"`

	// Services lists the service names exposed by `awsasync serve`.
	// Default: [s3, sts]
	Services []string `mapstructure:"services" validate:"dive,required" yaml:"services" json:"services"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 60 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if len(c.Services) == 0 {
		c.Services = []string{"s3", "sts"}
	}
}

// GetJWTSecret returns the JWT secret, preferring the environment variable.
func (c *Config) GetJWTSecret() string {
	envSecret := os.Getenv(EnvJWTSecret)
	if envSecret != "" {
		if c.JWTSecret != "" && c.JWTSecret != envSecret {
			logger.Warn("JWT secret from environment variable overrides config file value",
				"env_var", EnvJWTSecret)
		}
		return envSecret
	}
	return c.JWTSecret
}

// HasJWTSecret reports whether bearer authentication is enabled.
func (c *Config) HasJWTSecret() bool {
	return c.GetJWTSecret() != ""
}
