// Package config resolves runtime settings from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"Inventario/internal/kv"
)

type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

type LoggerConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type Config struct {
	HTTPAddr  string        `yaml:"http_addr"`
	Store     StoreConfig   `yaml:"store"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Metrics   MetricsConfig `yaml:"metrics"`
	Location  string        `yaml:"location"`
	Logger    LoggerConfig  `yaml:"logger"`
}

func Default() Config {
	return Config{
		HTTPAddr:  ":8080",
		Store:     StoreConfig{Driver: kv.DriverBolt, DSN: "inventario.db"},
		JWTSecret: "dev-secret",
		TokenTTL:  15 * time.Minute,
		Location:  "Local",
		Logger:    LoggerConfig{Mode: "development"},
	}
}

// Load builds the configuration. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.Store.Driver, "STORE_DRIVER")
	setString(&cfg.Store.DSN, "STORE_DSN")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.Metrics.Token, "METRICS_TOKEN")
	setString(&cfg.Location, "TZ_LOCATION")
	setString(&cfg.Logger.Mode, "LOG_MODE")

	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logger.FileEnable = true
		cfg.Logger.Filename = v
	}

	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("METRICS_ENABLED: %w", err)
		}
		cfg.Metrics.Enabled = b
	}

	if v := os.Getenv("TOKEN_TTL_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL_MIN: %w", err)
		}
		cfg.TokenTTL = time.Duration(n) * time.Minute
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c Config) Validate() error {
	var errs []error

	if !slices.Contains(kv.Drivers, c.Store.Driver) {
		errs = append(errs, fmt.Errorf("store.driver %q is not one of %v", c.Store.Driver, kv.Drivers))
	}
	if c.Store.Driver != kv.DriverMemory && c.Store.DSN == "" {
		errs = append(errs, errors.New("store.dsn is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	}
	if _, err := c.LoadLocation(); err != nil {
		errs = append(errs, err)
	}
	if c.Logger.FileEnable && c.Logger.Filename == "" {
		errs = append(errs, errors.New("logger.filename is required when file logging is enabled"))
	}

	return errors.Join(errs...)
}

// LoadLocation resolves Location. "Local" and "" mean time.Local.
func (c Config) LoadLocation() (*time.Location, error) {
	if c.Location == "" || c.Location == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("location %q: %w", c.Location, err)
	}
	return loc, nil
}
