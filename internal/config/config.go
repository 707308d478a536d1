package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dokzlo13/hueplan/internal/schedule"
)

// Config represents the application configuration
type Config struct {
	Location        schedule.LocationConfig   `yaml:"location"`
	Schedule        []schedule.RawChangePoint `yaml:"schedule"`
	Server          ServerConfig              `yaml:"server"`
	Log             LogConfig                 `yaml:"log"`
	Database        DatabaseConfig            `yaml:"database"`
	Hue             HueConfig                 `yaml:"hue"`
	ShutdownTimeout Duration                  `yaml:"shutdown_timeout"` // Timeout for graceful HTTP shutdown
}

// ServerConfig contains HTTP API server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// DatabaseConfig contains database settings.
// An empty path disables the persistent sunset cache.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// HueConfig contains optional Hue bridge push settings
type HueConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Bridge       string   `yaml:"bridge"`
	Token        string   `yaml:"token"`
	Group        string   `yaml:"group"`
	PushInterval Duration `yaml:"push_interval"`  // How often the current action is applied
	RateLimitRPS float64  `yaml:"rate_limit_rps"` // Bridge request rate limit
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Hue.PushInterval == 0 {
		cfg.Hue.PushInterval = Duration(1 * time.Minute)
	}
	if cfg.Hue.RateLimitRPS == 0 {
		cfg.Hue.RateLimitRPS = 2.0
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Hue.Enabled {
		if cfg.Hue.Bridge == "" || cfg.Hue.Token == "" || cfg.Hue.Group == "" {
			return fmt.Errorf("hue push is enabled but bridge, token or group is missing")
		}
	}
	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
