package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// Configuration represents the complete service configuration. It is built
// once at process start and passed by reference; nothing mutates it
// afterwards.
type Configuration struct {
	Backend BackendConfig `yaml:"backend"`
	API     APIConfig     `yaml:"api"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig identifies the array this backend instance manages and how
// deletes behave against it.
type BackendConfig struct {
	// Name identifies this backend instance in stats reports and logs.
	Name string `yaml:"backend_name" validate:"required"`

	// ManagementEndpoint is the array control-plane address.
	ManagementEndpoint string `yaml:"management_endpoint" validate:"required"`

	// DataEndpoint is the array data-plane address clients mount from.
	DataEndpoint string `yaml:"data_endpoint" validate:"required"`

	// APIToken is the credential for an administrative array account.
	// Usually supplied via BLADESHARE_API_TOKEN rather than the file.
	APIToken string `yaml:"api_token" validate:"required"`

	// EradicateOnDelete permanently removes filesystems and snapshots at
	// delete time. With it off, deleted resources enter the array's
	// pending-eradication state and stay recoverable.
	EradicateOnDelete bool `yaml:"eradicate_on_delete"`

	// RequestTimeout bounds a single management API call.
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`

	// VerifyTLS controls certificate verification against the management
	// endpoint. Arrays commonly run self-signed certificates.
	VerifyTLS bool `yaml:"verify_tls"`
}

// APIConfig configures the HTTP control surface.
type APIConfig struct {
	Address      string        `yaml:"address" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" validate:"gt=0"`
}

// MetricsConfig configures Prometheus metric exposure.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace" validate:"required"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN or ERROR.
	Level string `yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format selects the handler: text (tint) or json.
	Format string `yaml:"format" validate:"required,oneof=text json"`
}

// NewDefault returns a configuration with sensible defaults. The backend
// section has no usable defaults; endpoint and token must come from the
// file or the environment.
func NewDefault() *Configuration {
	return &Configuration{
		Backend: BackendConfig{
			Name:              "bladeshare",
			EradicateOnDelete: false,
			RequestTimeout:    30 * time.Second,
			VerifyTLS:         false,
		},
		API: APIConfig{
			Address:      "localhost:8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "bladeshare",
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a YAML file on top of the current
// values.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv applies environment variable overrides. Secrets are expected
// to arrive this way so config files stay shareable.
func (c *Configuration) LoadFromEnv() {
	if val := os.Getenv("BLADESHARE_BACKEND_NAME"); val != "" {
		c.Backend.Name = val
	}
	if val := os.Getenv("BLADESHARE_MGMT_ENDPOINT"); val != "" {
		c.Backend.ManagementEndpoint = val
	}
	if val := os.Getenv("BLADESHARE_DATA_ENDPOINT"); val != "" {
		c.Backend.DataEndpoint = val
	}
	if val := os.Getenv("BLADESHARE_API_TOKEN"); val != "" {
		c.Backend.APIToken = val
	}
	if val := os.Getenv("BLADESHARE_ERADICATE_ON_DELETE"); val != "" {
		c.Backend.EradicateOnDelete = strings.EqualFold(val, "true")
	}
	if val := os.Getenv("BLADESHARE_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Backend.RequestTimeout = d
		}
	}
	if val := os.Getenv("BLADESHARE_API_ADDRESS"); val != "" {
		c.API.Address = val
	}
	if val := os.Getenv("BLADESHARE_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("BLADESHARE_LOG_FORMAT"); val != "" {
		c.Logging.Format = val
	}
}

// Validate checks the configuration for completeness and consistency.
func (c *Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var errs validator.ValidationErrors
		msgs := make([]string, 0)
		if ok := asValidationErrors(err, &errs); ok {
			for _, fe := range errs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if ok {
		*target = ve
	}
	return ok
}

// Load builds the effective configuration: defaults, then the optional
// file, then environment overrides, then validation.
func Load(path string) (*Configuration, error) {
	cfg := NewDefault()
	if path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	cfg.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
