package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the cmsctl configuration, merged from flags, CMSCTL_* env
// vars, cmsctl.yaml, and defaults in that order of precedence.
type Config struct {
	Server   string      `mapstructure:"server"`
	APIKey   string      `mapstructure:"api_key"`
	CacheDir string      `mapstructure:"cache_dir"`
	NoCache  bool        `mapstructure:"no_cache"`
	Image    ImageConfig `mapstructure:"image"`
}

// ImageConfig controls compression of embedded images on publish.
type ImageConfig struct {
	MaxWidth int `mapstructure:"max_width"`
	Quality  int `mapstructure:"quality"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server", "http://localhost:8080")
	v.SetDefault("api_key", "")
	v.SetDefault("cache_dir", "")
	v.SetDefault("no_cache", false)
	v.SetDefault("image.max_width", 1200)
	v.SetDefault("image.quality", 60)
}

// loadConfig reads the config file (cfgFile, or cmsctl.yaml in the working
// directory or the user config dir) and the environment into a Config.
func loadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("cmsctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "cmsctl"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("CMSCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no command can work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server) == "" {
		return errors.New("server is required")
	}
	if c.Image.MaxWidth < 1 {
		return fmt.Errorf("image.max_width must be positive, got %d", c.Image.MaxWidth)
	}
	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		return fmt.Errorf("image.quality must be between 1 and 100, got %d", c.Image.Quality)
	}
	return nil
}
