package array

import (
	"time"
)

// Config represents array client configuration.
type Config struct {
	// Endpoint is the management VIP, with or without scheme.
	Endpoint string `yaml:"endpoint"`

	// APIToken authenticates the administrative account.
	APIToken string `yaml:"api_token"`

	// RequestTimeout bounds a single API call.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// VerifyTLS enables certificate verification.
	VerifyTLS bool `yaml:"verify_tls"`

	// UserAgent is sent on every request so array audit logs can
	// attribute operations to this driver.
	UserAgent string `yaml:"user_agent"`
}

// NewDefaultConfig returns a config with sane defaults applied.
func NewDefaultConfig() *Config {
	return &Config{
		RequestTimeout: 30 * time.Second,
		VerifyTLS:      false,
		UserAgent:      "BladeShare",
	}
}

func (c *Config) applyDefaults() {
	def := NewDefaultConfig()
	if c.RequestTimeout == 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
}
