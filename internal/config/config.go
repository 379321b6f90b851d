package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type FetchConfig struct {
	DocsBaseURL    string `mapstructure:"docs_base_url"`
	StdlibBaseURL  string `mapstructure:"stdlib_base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type DaemonConfig struct {
	ExpirationSeconds int `mapstructure:"expiration_seconds"`
}

type Config struct {
	Fetch  FetchConfig  `mapstructure:"fetch"`
	Daemon DaemonConfig `mapstructure:"daemon"`
}

// cacheBase returns the base cache directory for docseek.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/docseek as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "docseek")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "docseek")
	}
	return filepath.Join(os.TempDir(), "docseek")
}

// DBPath returns the path to the SQLite database file.
func DBPath() string {
	return filepath.Join(cacheBase(), "db.db")
}

// IndexCacheDir returns the directory holding compressed raw index files.
func IndexCacheDir() string {
	return filepath.Join(cacheBase(), "index")
}

// LogPath returns the path to the daemon's log file.
func LogPath() string {
	return filepath.Join(cacheBase(), "daemon.log")
}

// SocketPath returns the path to the daemon's unix socket.
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "docseek", "daemon.sock")
	}
	return filepath.Join(fmt.Sprintf("/run/user/%d", os.Getuid()), "docseek", "daemon.sock")
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "docseek"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "docseek"))
	}

	viper.SetDefault("fetch.docs_base_url", "https://docs.rs")
	viper.SetDefault("fetch.stdlib_base_url", "https://doc.rust-lang.org/nightly")
	viper.SetDefault("fetch.timeout_seconds", 60)
	viper.SetDefault("daemon.expiration_seconds", 600)

	viper.SetEnvPrefix("DOCSEEK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
