// Package config loads server configuration from defaults, an optional
// config file and CUSTOMIZER_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig captures runtime settings for the customizer server.
type ServerConfig struct {
	ListenAddr    string        `mapstructure:"listen_addr"`
	ModelPath     string        `mapstructure:"model_path"`
	PresetsPath   string        `mapstructure:"presets_path"`
	CompilerBin   string        `mapstructure:"compiler_bin"`
	Debounce      time.Duration `mapstructure:"debounce"`
	JobTimeout    time.Duration `mapstructure:"job_timeout"`
	PreviewFormat string        `mapstructure:"preview_format"`
	CacheBytes    int64         `mapstructure:"cache_bytes"`
	RedisURL      string        `mapstructure:"redis_url"`
	AssetURL      string        `mapstructure:"asset_url"`
	Tracing       bool          `mapstructure:"tracing"`
}

// LoadServer loads server configuration. Values resolve in order: explicit
// config file entries, CUSTOMIZER_* environment variables, then defaults.
func LoadServer(paths ...string) (ServerConfig, error) {
	v := viper.New()
	v.SetConfigName("customizer")
	if len(paths) == 0 {
		paths = []string{".", "./configs"}
	}
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	v.SetEnvPrefix("CUSTOMIZER")
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("model_path", "model.scad")
	v.SetDefault("presets_path", "presets.yaml")
	v.SetDefault("compiler_bin", "openscad")
	v.SetDefault("debounce", 350*time.Millisecond)
	v.SetDefault("job_timeout", 90*time.Second)
	v.SetDefault("preview_format", "stl")
	v.SetDefault("cache_bytes", int64(256<<20))
	v.SetDefault("redis_url", "")
	v.SetDefault("asset_url", "/assets/")
	v.SetDefault("tracing", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return ServerConfig{}, fmt.Errorf("config: load: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
