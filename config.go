package storekit

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	storeErrors "github.com/c0deZ3R0/go-store-kit/errors"
	"github.com/c0deZ3R0/go-store-kit/logging"
	"github.com/c0deZ3R0/go-store-kit/transport"
)

// Config is the file form of client settings.
type Config struct {
	// Bootstrap is the contact-point URL, tcp://host[:port] or
	// http://host[:port].
	Bootstrap string `yaml:"bootstrap"`

	Transport TransportConfig `yaml:"transport"`
	Logging   logging.Config  `yaml:"logging"`
}

// TransportConfig holds the connection-level timeouts.
type TransportConfig struct {
	DialTimeout    Duration `yaml:"dial_timeout"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

// Duration is a time.Duration that unmarshals from YAML strings such as
// "5s" or "250ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("reading config: %w", err))
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("parsing config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config for settings Connect would reject.
func (c *Config) Validate() error {
	if c.Bootstrap == "" {
		return storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("bootstrap url is required"))
	}
	if !strings.HasPrefix(c.Bootstrap, "tcp://") && !strings.HasPrefix(c.Bootstrap, "http://") {
		return storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("bootstrap url %q must use the tcp or http scheme", c.Bootstrap))
	}
	if c.Transport.DialTimeout < 0 || c.Transport.RequestTimeout < 0 {
		return storeErrors.NewConfigurationError(storeErrors.OpBootstrap,
			fmt.Errorf("transport timeouts must not be negative"))
	}
	return nil
}

// TransportOptions converts the config's timeouts to transport options,
// falling back to the defaults for unset values.
func (c *Config) TransportOptions() *transport.Options {
	opts := transport.DefaultOptions()
	if c.Transport.DialTimeout > 0 {
		opts.DialTimeout = time.Duration(c.Transport.DialTimeout)
	}
	if c.Transport.RequestTimeout > 0 {
		opts.RequestTimeout = time.Duration(c.Transport.RequestTimeout)
	}
	return opts
}
