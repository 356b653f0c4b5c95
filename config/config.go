// Package config loads codec and service settings from YAML, TOML or JSON
// files (local or over HTTP) with environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/presbrey/b64/base64"
)

// Config represents the codec and service configuration
type Config struct {
	// Default codec
	Codec struct {
		Symbol62 string `yaml:"symbol62" toml:"symbol62" json:"symbol62" env:"B64_SYMBOL62"`
		Symbol63 string `yaml:"symbol63" toml:"symbol63" json:"symbol63" env:"B64_SYMBOL63"`
		Padded   bool   `yaml:"padded" toml:"padded" json:"padded" env:"B64_PADDED"`
	} `yaml:"codec" toml:"codec" json:"codec"`

	// HTTP service settings
	Server struct {
		Host         string `yaml:"host" toml:"host" json:"host" env:"B64_HOST"`
		Port         int    `yaml:"port" toml:"port" json:"port" env:"B64_PORT"`
		MaxBodyBytes int64  `yaml:"max_body_bytes" toml:"max_body_bytes" json:"max_body_bytes" env:"B64_MAX_BODY_BYTES"`
	} `yaml:"server" toml:"server" json:"server"`

	// Prometheus settings
	Metrics struct {
		Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled" env:"B64_METRICS_ENABLED"`
		Path    string `yaml:"path" toml:"path" json:"path" env:"B64_METRICS_PATH"`
	} `yaml:"metrics" toml:"metrics" json:"metrics"`

	// Profile store settings
	Store struct {
		DSN string `yaml:"dsn" toml:"dsn" json:"dsn" env:"B64_STORE_DSN"`
	} `yaml:"store" toml:"store" json:"store"`

	// Configuration source for reloading
	Source string `yaml:"-" toml:"-" json:"-"`
}

// Default returns a Config populated with defaults and environment overrides.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	applyEnvOverrides(cfg)
	return cfg
}

func (c *Config) setDefaults() {
	c.Codec.Symbol62 = "+"
	c.Codec.Symbol63 = "/"
	c.Codec.Padded = true
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8064
	c.Server.MaxBodyBytes = 4 << 20
	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"
	c.Store.DSN = "file:b64.db?cache=shared"
}

// Load loads configuration from a file or URL. An empty source yields the defaults.
func Load(source string) (*Config, error) {
	cfg := &Config{}
	cfg.setDefaults()

	if source != "" {
		if err := cfg.loadFromSource(source); err != nil {
			return nil, err
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	if _, err := cfg.NewCodec(); err != nil {
		return nil, fmt.Errorf("invalid codec configuration: %w", err)
	}
	return cfg, nil
}

// Reload reloads the configuration from the original source or a new source
func (c *Config) Reload(newSource string) error {
	if newSource == "" {
		newSource = c.Source
	}
	newCfg, err := Load(newSource)
	if err != nil {
		return err
	}
	*c = *newCfg
	return nil
}

// loadFromSource loads configuration from a file or URL
func (c *Config) loadFromSource(source string) error {
	var data []byte
	var err error

	// Check if the source is a URL
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			return fmt.Errorf("failed to load config from URL: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to load config from URL, status: %s", resp.Status)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read config from URL: %w", err)
		}
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Determine the format based on file extension
	switch {
	case strings.HasSuffix(source, ".toml"):
		err = toml.Unmarshal(data, c)
	case strings.HasSuffix(source, ".json"):
		err = json.Unmarshal(data, c)
	default:
		err = yaml.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	c.Source = source
	return nil
}

// NewCodec builds the default codec described by the Codec section.
func (c *Config) NewCodec() (*base64.Codec, error) {
	if len(c.Codec.Symbol62) != 1 || len(c.Codec.Symbol63) != 1 {
		return nil, fmt.Errorf("%w: symbol62 and symbol63 must be single characters", base64.ErrConfiguration)
	}
	padding := base64.Unpadded
	if c.Codec.Padded {
		padding = base64.Padded
	}
	return base64.New(c.Codec.Symbol62[0], c.Codec.Symbol63[0], padding)
}

// ListenAddress returns the formatted listen address for the HTTP service
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	applyEnvOverridesRecursive(reflect.ValueOf(cfg).Elem())
}

func applyEnvOverridesRecursive(v reflect.Value) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		// Skip unexported fields
		if field.PkgPath != "" {
			continue
		}

		if envTag := field.Tag.Get("env"); envTag != "" {
			if envValue, exists := os.LookupEnv(envTag); exists {
				setFieldFromEnv(fieldValue, envValue)
			}
		} else if field.Type.Kind() == reflect.Struct {
			applyEnvOverridesRecursive(fieldValue)
		}
	}
}

// setFieldFromEnv sets a field's value from an environment variable.
// Unparseable numbers leave the field unchanged.
func setFieldFromEnv(field reflect.Value, envValue string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v, err := strconv.ParseInt(strings.TrimSpace(envValue), 10, 64); err == nil {
			field.SetInt(v)
		}
	case reflect.Bool:
		if v, err := parseBool(envValue); err == nil {
			field.SetBool(v)
		}
	}
}

// parseBool accepts strconv.ParseBool values plus yes/no and y/n.
func parseBool(s string) (bool, error) {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(s)
}
