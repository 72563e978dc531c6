package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the CLI configuration loaded from flags, environment and configs/.env.
type Config struct {
	Host           string `mapstructure:"host"`
	Token          string `mapstructure:"token"`
	LogLevel       string `mapstructure:"log_level"`
	Output         string `mapstructure:"output"`
	PublishersFile string `mapstructure:"publishers_file"`
	FetchTitles    bool   `mapstructure:"fetch_titles"`

	TimeoutSeconds int64         `mapstructure:"timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`

	TokenStore           string        `mapstructure:"token_store"`
	TokenStorePath       string        `mapstructure:"token_store_path"`
	TokenTTLSeconds      int64         `mapstructure:"token_ttl_seconds"`
	TokenCleanupSeconds  int64         `mapstructure:"token_cleanup_interval_seconds"`
	TokenTTL             time.Duration `mapstructure:"-"`
	TokenCleanupInterval time.Duration `mapstructure:"-"`
}

const (
	envPrefix = "ZSHORT"

	OutputJSON = "json"
	OutputYAML = "yaml"
	OutputText = "text"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"host":             "host",
	"token":            "token",
	"log-level":        "log_level",
	"output":           "output",
	"timeout":          "timeout_seconds",
	"token-store":      "token_store",
	"token-store-path": "token_store_path",
	"publishers-file":  "publishers_file",
	"fetch-titles":     "fetch_titles",
}

// RegisterFlags adds the global flags to fs. Defaults live in Load, so flags
// only win when set explicitly.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("host", "", "ZShort host (default https://zs.zevs.me)")
	fs.String("token", "", "access token to use instead of the stored one")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.StringP("output", "o", "", "output format: json, yaml, text")
	fs.Int64("timeout", 0, "request timeout in seconds (0 disables)")
	fs.String("token-store", "", "token store: bbolt or none")
	fs.String("token-store-path", "", "path of the bbolt token store")
	fs.String("publishers-file", "", "YAML/JSON file of link event publishers")
	fs.Bool("fetch-titles", false, "look up page titles for untitled links")
}

// Load reads configuration from environment variables, configs/.env and the
// given flag set (which may be nil).
func Load(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("host", "https://zs.zevs.me")
	v.SetDefault("token", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("output", OutputJSON)
	v.SetDefault("timeout_seconds", 0)
	v.SetDefault("token_store", "bbolt")
	v.SetDefault("token_store_path", defaultStorePath())
	v.SetDefault("token_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("token_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("publishers_file", "")
	v.SetDefault("fetch_titles", false)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Host = strings.TrimSuffix(strings.TrimSpace(cfg.Host), "/")
	if cfg.Host == "" {
		return nil, fmt.Errorf("invalid host (must not be empty)")
	}
	if !strings.HasPrefix(cfg.Host, "http://") && !strings.HasPrefix(cfg.Host, "https://") {
		return nil, fmt.Errorf("invalid host %q (must start with http:// or https://)", cfg.Host)
	}

	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	switch cfg.Output {
	case OutputJSON, OutputYAML, OutputText:
	default:
		return nil, fmt.Errorf("invalid output %q (expected json, yaml or text)", cfg.Output)
	}

	if cfg.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid timeout_seconds (must not be negative)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	if cfg.TokenTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid token_ttl_seconds (must be positive seconds)")
	}
	if cfg.TokenCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid token_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.TokenTTL = time.Duration(cfg.TokenTTLSeconds) * time.Second
	cfg.TokenCleanupInterval = time.Duration(cfg.TokenCleanupSeconds) * time.Second

	return &cfg, nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "data", "zshort.db")
	}
	return filepath.Join(dir, "zshort", "tokens.db")
}
