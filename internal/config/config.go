package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	defaultScanInterval     = 10 * time.Second
	defaultSubscriberBuffer = 256
	defaultLoaderFile       = "loader.jar"
	defaultLogLevel         = "info"
	envPrefix               = "WEAVE"
)

// Config aggregates the daemon's tunables.
type Config struct {
	// DataDir defaults to ~/.weave when empty.
	DataDir            string        `mapstructure:"data_dir"`
	LoaderFile         string        `mapstructure:"loader_file"`
	LogLevel           string        `mapstructure:"log_level"`
	AutoSelectLaunched bool          `mapstructure:"auto_select_launched"`
	ScanInterval       time.Duration `mapstructure:"scan_interval"`
	SubscriberBuffer   int           `mapstructure:"subscriber_buffer"`
}

// Load builds a Config from an optional file (JSON, TOML or YAML by
// extension) plus WEAVE_* environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("data_dir", "")
	v.SetDefault("loader_file", defaultLoaderFile)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("auto_select_launched", true)
	v.SetDefault("scan_interval", defaultScanInterval)
	v.SetDefault("subscriber_buffer", defaultSubscriberBuffer)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.ScanInterval < 0 {
		return errors.New("scan_interval must be >= 0")
	}
	if c.SubscriberBuffer <= 0 {
		return errors.New("subscriber_buffer must be > 0")
	}
	if strings.TrimSpace(c.LoaderFile) == "" {
		return errors.New("loader_file must not be empty")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Logger returns a logrus logger configured from c.
func (c Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return log
}
