package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from flags, files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	RequestsFile   string `mapstructure:"requests_file"`
	PublishersFile string `mapstructure:"publishers_file"`
	RequestID      string `mapstructure:"request_id"`
	PrintBody      bool   `mapstructure:"print_body"`

	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	HTTPErrors         bool          `mapstructure:"http_errors"`
	UserAgent          string        `mapstructure:"user_agent"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from command line flags, environment variables and config files.
func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load with explicit command line arguments.
func LoadArgs(args []string) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-request-manager")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("requests_file", "./configs/requests.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("request_id", "")
	v.SetDefault("print_body", true)
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("http_errors", true)
	v.SetDefault("user_agent", "samvad-request-manager/1.0")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/snapshots.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	fs := pflag.NewFlagSet("reqmanager", pflag.ContinueOnError)
	fs.String("request", "", "id of the request definition to run (default: all enabled)")
	fs.String("requests-file", "", "path to the request definitions file")
	fs.String("publishers-file", "", "path to the publishers file")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Bool("print-body", true, "print response bodies to stdout")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	for key, flag := range map[string]string{
		"request_id":      "request",
		"requests_file":   "requests-file",
		"publishers_file": "publishers-file",
		"log_level":       "log-level",
		"print_body":      "print-body",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}
