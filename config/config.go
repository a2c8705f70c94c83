// Package config loads host settings from a YAML file and NAPIHOST_*
// environment variables.
package config

import (
	stderrors "errors"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/napi-host/dynlib"
	"github.com/wippyai/napi-host/engine"
	"github.com/wippyai/napi-host/errors"
	"github.com/wippyai/napi-host/host/memhost"
	"github.com/wippyai/napi-host/napi"
)

// EnvPrefix prefixes environment overrides: addons.dir is NAPIHOST_ADDONS_DIR.
const EnvPrefix = "NAPIHOST"

// DefaultName is the config file searched for when no path is given.
const DefaultName = "napihost"

type Config struct {
	Addons  AddonsConfig      `mapstructure:"addons"`
	Wasm    WasmConfig        `mapstructure:"wasm"`
	Async   AsyncConfig       `mapstructure:"async"`
	Log     LogConfig         `mapstructure:"log"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
	Aliases map[string]string `mapstructure:"aliases"`
}

type AddonsConfig struct {
	// Dir holds addon libraries. Empty uses the platform search path.
	Dir string `mapstructure:"dir"`
	// Format is "native" or "wasm".
	Format string `mapstructure:"format"`
	// GOOS overrides the platform naming scheme.
	GOOS              string `mapstructure:"goos"`
	DefaultAPIVersion int32  `mapstructure:"default_api_version"`
}

type WasmConfig struct {
	CacheDir         string `mapstructure:"cache_dir"`
	MemoryLimitPages uint32 `mapstructure:"memory_limit_pages"`
	EnableWASI       bool   `mapstructure:"enable_wasi"`
}

type AsyncConfig struct {
	Workers int64 `mapstructure:"workers"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	// File enables a rotated log file in addition to stderr.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type MetricsConfig struct {
	// Addr serves Prometheus metrics when set, e.g. ":9464".
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addons.dir", "")
	v.SetDefault("addons.format", string(dynlib.FormatNative))
	v.SetDefault("addons.goos", "")
	v.SetDefault("addons.default_api_version", napi.DefaultModuleAPIVersion)
	v.SetDefault("wasm.cache_dir", "")
	v.SetDefault("wasm.memory_limit_pages", 0)
	v.SetDefault("wasm.enable_wasi", false)
	v.SetDefault("async.workers", memhost.DefaultWorkers)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("aliases", map[string]string{})
}

// Load reads path, or napihost.yaml from the working directory when path
// is empty, and applies environment overrides. A missing default file is
// not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(DefaultName)
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch dynlib.Format(c.Addons.Format) {
	case dynlib.FormatNative, dynlib.FormatWasm:
	default:
		return invalid("addons.format", "must be native or wasm, got %q", c.Addons.Format)
	}
	if !napi.ValidAPIVersion(c.Addons.DefaultAPIVersion) {
		return invalid("addons.default_api_version", "unsupported version %d", c.Addons.DefaultAPIVersion)
	}
	if c.Async.Workers < 1 {
		return invalid("async.workers", "must be at least 1, got %d", c.Async.Workers)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "%v", err)
	}
	for prefix, pkg := range c.Aliases {
		if prefix == "" || pkg == "" {
			return invalid("aliases", "empty alias %q -> %q", prefix, pkg)
		}
	}
	return nil
}

// Layout returns the library layout for the addons section.
func (c *Config) Layout() dynlib.Layout {
	return dynlib.Layout{
		GOOS:   c.Addons.GOOS,
		Dir:    c.Addons.Dir,
		Format: dynlib.Format(c.Addons.Format),
	}
}

// Engine returns the wazero loader settings.
func (c *Config) Engine() *engine.Config {
	return &engine.Config{
		CacheDir:         c.Wasm.CacheDir,
		MemoryLimitPages: c.Wasm.MemoryLimitPages,
		EnableWASI:       c.Wasm.EnableWASI,
	}
}

func invalid(key, format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Path(key).
		Detail(format, args...).
		Build()
}
