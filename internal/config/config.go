package config

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type AppConfig struct {
	ServerAddr string `mapstructure:"SERVER_ADDR" validate:"min=2"`
	GinMode    string `mapstructure:"GIN_MODE" validate:"min=4"`

	CacheDir    string `mapstructure:"CACHE_DIR" validate:"min=1"`
	DataDir     string `mapstructure:"DATA_DIR" validate:"min=1"`
	StorageMode string `mapstructure:"STORAGE_MODE" validate:"oneof=memory bbolt"`

	ManifestURL  string        `mapstructure:"MANIFEST_URL" validate:"url"`
	UserAgent    string        `mapstructure:"USER_AGENT" validate:"min=1"`
	FetchTimeout time.Duration `mapstructure:"FETCH_TIMEOUT" validate:"nonzero_duration"`

	MaxConcurrentFetches int `mapstructure:"MAX_CONCURRENT_FETCHES" validate:"min=1"`
	PreviewWidth         int `mapstructure:"PREVIEW_WIDTH" validate:"min=1"`
	PreviewHeight        int `mapstructure:"PREVIEW_HEIGHT" validate:"min=1"`
	PreviewQuality       int `mapstructure:"PREVIEW_QUALITY" validate:"min=1,max=100"`

	ProbeURL      string        `mapstructure:"PROBE_URL" validate:"url"`
	ProbeInterval time.Duration `mapstructure:"PROBE_INTERVAL" validate:"nonzero_duration"`
	ProbeTimeout  time.Duration `mapstructure:"PROBE_TIMEOUT" validate:"nonzero_duration"`

	SyncTimeout time.Duration `mapstructure:"SYNC_TIMEOUT" validate:"nonzero_duration"`
}

func (c *AppConfig) Validate() error {
	v := validator.New()

	_ = v.RegisterValidation("nonzero_duration", func(fl validator.FieldLevel) bool {
		if d, ok := fl.Field().Interface().(time.Duration); ok {
			return d > 0
		} else {
			return false
		}
	})
	if err := v.Struct(c); err != nil {
		return err
	}
	return nil
}

func LoadAppConfig(name, ext string, paths ...string) (*AppConfig, error) {
	for _, path := range paths {
		viper.AddConfigPath(path)
	}
	viper.SetConfigName(name)
	viper.SetConfigType(ext)
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_ADDR", ":8082")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("CACHE_DIR", "./data/cache")
	viper.SetDefault("DATA_DIR", "./data")
	viper.SetDefault("STORAGE_MODE", "bbolt")
	viper.SetDefault("MANIFEST_URL", "https://it-link.ru/test/images.txt")
	viper.SetDefault("USER_AGENT", "Mozilla/5.0 (compatible; ImageViewer/1.0)")
	viper.SetDefault("FETCH_TIMEOUT", 30*time.Second)
	viper.SetDefault("MAX_CONCURRENT_FETCHES", 16)
	viper.SetDefault("PREVIEW_WIDTH", 100)
	viper.SetDefault("PREVIEW_HEIGHT", 120)
	viper.SetDefault("PREVIEW_QUALITY", 85)
	viper.SetDefault("PROBE_URL", "https://clients3.google.com/generate_204")
	viper.SetDefault("PROBE_INTERVAL", 15*time.Second)
	viper.SetDefault("PROBE_TIMEOUT", 5*time.Second)
	viper.SetDefault("SYNC_TIMEOUT", 5*time.Minute)

	// defaults and env cover everything, a config file is optional
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &AppConfig{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
