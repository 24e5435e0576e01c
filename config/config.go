package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds every configurable value for the daemon.
type Config struct {
	// Wire
	Port int // TCP port the HTTP front-end listens on

	// Admission / cache
	MaxClients                 int // hard cap on concurrent in-flight connections
	JsonrpcCacheExpirationTime int // seconds; snapshot cache staleness threshold

	// Filesystem
	Datadir string // root of the host/plugin/type hierarchy; "" means "."

	// Persistence
	DiagnosticsDBPath string // path to the SQLite diagnostics-history file

	// Logging
	LogLevel string // debug|info|warn|error
}

// Load reads configuration from (in increasing priority):
//  1. built-in defaults
//  2. a yaml file (./configs/config.yaml) if present
//  3. environment variables (e.g. PW_MAXCLIENTS)
//
// It returns a fully populated *Config together with the *viper.Viper it
// was decoded from (for WatchForChanges), or an error.
func Load() (*Config, *viper.Viper, error) {
	v := viper.New()

	v.SetDefault("Port", 0)
	v.SetDefault("MaxClients", 16)
	v.SetDefault("JsonrpcCacheExpirationTime", 60)
	v.SetDefault("Datadir", ".")
	v.SetDefault("DiagnosticsDBPath", "./data/perfwatcherd.db")
	v.SetDefault("LogLevel", "info")

	v.SetEnvPrefix("PW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // optional file

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Validate enforces the range constraints fixed by the wire contract.
func Validate(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("Port must be in [1, 65535], got %d", cfg.Port)
	}
	if cfg.MaxClients < 1 || cfg.MaxClients > 65535 {
		return fmt.Errorf("MaxClients must be in [1, 65535], got %d", cfg.MaxClients)
	}
	if cfg.JsonrpcCacheExpirationTime < 1 || cfg.JsonrpcCacheExpirationTime > 3600 {
		return fmt.Errorf("JsonrpcCacheExpirationTime must be in [1, 3600], got %d", cfg.JsonrpcCacheExpirationTime)
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}
	return &cfg, nil
}

// WatchForChanges installs a viper.WatchConfig hook (backed by fsnotify)
// that re-decodes the file on every change and hands the result to apply.
// Port and Datadir are process-lifetime values in practice: nothing reads
// them again after startup, so a changed value here only takes effect on
// the next restart even though it flows through apply like everything
// else.
func WatchForChanges(v *viper.Viper, log *zap.Logger, apply func(*Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			log.Warn("config reload failed", zap.Error(err), zap.String("file", e.Name))
			return
		}
		if err := Validate(cfg); err != nil {
			log.Warn("reloaded config failed validation, keeping previous", zap.Error(err))
			return
		}
		log.Info("config file changed, applying hot-reloadable fields", zap.String("file", e.Name))
		apply(cfg)
	})
	v.WatchConfig()
}
