package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// EnvPrefix prefixes every environment variable, e.g. BANKGATE_DATABASE_URL
const EnvPrefix = "BANKGATE"

// Load loads the configuration from all sources and returns the merged result.
// Precedence is environment, then config file, then defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	Settings.PopulateViperDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if missing := Settings.MissingRequired(v); len(missing) > 0 {
		return nil, fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	config := &Config{}
	var err error

	config.Server.Address = v.GetString("SERVER_ADDR")
	if config.Server.ShutdownTimeout, err = parseDuration(v, "SHUTDOWN_TIMEOUT"); err != nil {
		return nil, err
	}

	config.Metrics.Address = v.GetString("METRICS_ADDR")

	config.TLS.Enabled = v.GetBool("TLS_ENABLED")
	config.TLS.CertPath = v.GetString("TLS_CERT_PATH")
	config.TLS.KeyPath = v.GetString("TLS_KEY_PATH")

	config.Database.URL = v.GetString("DATABASE_URL")
	config.Database.MaxConnections = v.GetInt("DATABASE_MAX_CONNECTIONS")

	config.Routes.BasePath = strings.TrimRight(v.GetString("BASE_PATH"), "/")

	config.Session.CookieName = v.GetString("SESSION_COOKIE_NAME")
	config.Session.Header = v.GetString("SESSION_HEADER")
	if config.Session.TTL, err = parseDuration(v, "SESSION_TTL"); err != nil {
		return nil, err
	}
	config.Session.MaxEntries = v.GetInt("SESSION_MAX_ENTRIES")
	config.Session.CookieSecure = v.GetBool("SESSION_COOKIE_SECURE")

	config.Password.BcryptCost = v.GetInt("BCRYPT_COST")

	config.Observability.LogLevel = v.GetString("LOG_LEVEL")
	config.Observability.LogFormat = v.GetString("LOG_FORMAT")

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

func parseDuration(v *viper.Viper, name string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(name))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToLower(name), err)
	}
	return d, nil
}

// validateConfig performs validation on the loaded configuration
func validateConfig(cfg *Config) error {
	if cfg.TLS.Enabled {
		if cfg.TLS.CertPath == "" {
			return fmt.Errorf("TLS certificate path is required when TLS is enabled")
		}
		if cfg.TLS.KeyPath == "" {
			return fmt.Errorf("TLS key path is required when TLS is enabled")
		}

		if _, err := os.Stat(cfg.TLS.CertPath); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file not found: %s", cfg.TLS.CertPath)
		}
		if _, err := os.Stat(cfg.TLS.KeyPath); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file not found: %s", cfg.TLS.KeyPath)
		}
	}

	if cfg.Routes.BasePath != "" && !strings.HasPrefix(cfg.Routes.BasePath, "/") {
		return fmt.Errorf("base path must start with '/': %q", cfg.Routes.BasePath)
	}

	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if cfg.Session.MaxEntries < 0 {
		return fmt.Errorf("session max entries must not be negative")
	}
	if cfg.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}
	if cfg.Session.Header == "" {
		return fmt.Errorf("session header is required")
	}

	if cfg.Password.BcryptCost < bcrypt.MinCost || cfg.Password.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cfg.Password.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	if cfg.Database.MaxConnections <= 0 {
		return fmt.Errorf("database max connections must be positive")
	}

	return nil
}
