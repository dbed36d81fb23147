// Package config manages application configuration from files and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/storage"
)

// EnvPrefix is prepended to every environment override, e.g. SHEETKIT_STORE_BACKEND.
const EnvPrefix = "SHEETKIT"

// Config holds the application configuration.
type Config struct {
	Store struct {
		Backend    string `mapstructure:"backend"`
		Path       string `mapstructure:"path"`
		QuotaBytes int    `mapstructure:"quota_bytes"`
		Key        string `mapstructure:"key"`
	} `mapstructure:"store"`
	Import struct {
		Dir      string `mapstructure:"dir"`
		Sheet    string `mapstructure:"sheet"`
		KeepRows bool   `mapstructure:"keep_rows"`
	} `mapstructure:"import"`
	Output struct {
		Color       bool `mapstructure:"color"`
		MaxColWidth int  `mapstructure:"max_col_width"`
	} `mapstructure:"output"`
	Serve struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"serve"`
	Watch struct {
		DebounceMs int `mapstructure:"debounce_ms"`
	} `mapstructure:"watch"`
}

// Debounce returns the watch debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

var defaults = map[string]interface{}{
	"store.backend":        storage.BackendFile,
	"store.path":           "",
	"store.quota_bytes":    storage.DefaultQuota,
	"store.key":            history.DefaultKey,
	"import.dir":           "",
	"import.sheet":         "",
	"import.keep_rows":     true,
	"output.color":         true,
	"output.max_col_width": 40,
	"serve.addr":           "127.0.0.1:8080",
	"watch.debounce_ms":    500,
}

// Load reads ~/.sheetkit/config.yaml, a .env file in the working directory
// and SHEETKIT_* environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir())

	for k, v := range defaults {
		viper.SetDefault(k, v)
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config %s: %w", ConfigPath(), err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}

	return &cfg, nil
}

// Keys returns every known configuration key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKnownKey reports whether key is a recognized configuration key.
func IsKnownKey(key string) bool {
	_, ok := defaults[key]
	return ok
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Dir returns the configuration directory, ~/.sheetkit.
func Dir() string {
	return configDir()
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetkit"
	}
	return filepath.Join(home, ".sheetkit")
}
