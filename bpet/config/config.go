package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/bpe-tokenizer/bpet"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Training TrainingConfig `mapstructure:"training"`
	Corpus   CorpusConfig   `mapstructure:"corpus"`
	Encoder  EncoderConfig  `mapstructure:"encoder"`
	Store    StoreConfig    `mapstructure:"store"`
	Log      LogConfig      `mapstructure:"log"`
}

// TrainingConfig stores merge training settings.
type TrainingConfig struct {
	VocabSize int `mapstructure:"vocabSize"`
	// MaxIterations caps the number of merges. Zero means no cap.
	MaxIterations int    `mapstructure:"maxIterations"`
	LogEvery      int    `mapstructure:"logEvery"`
	Normalization string `mapstructure:"normalization"`
}

// CorpusConfig stores where training text is read from.
type CorpusConfig struct {
	Dir        string   `mapstructure:"dir"`
	Extensions []string `mapstructure:"extensions"`
	IgnoreFile string   `mapstructure:"ignoreFile"`
	Workers    int      `mapstructure:"workers"`
}

// EncoderConfig stores encoding and batching settings.
type EncoderConfig struct {
	CacheSize int `mapstructure:"cacheSize"`
	MaxSeqLen int `mapstructure:"maxSeqLen"`
	Workers   int `mapstructure:"workers"`
	PadID     int `mapstructure:"padID"`
}

// StoreConfig stores the model database connection details.
type StoreConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig stores logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
// Environment variables use the BPET_ prefix with dots replaced by
// underscores, e.g. BPET_TRAINING_VOCABSIZE.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("training.vocabSize", internal.DefaultVocabSize)
	v.SetDefault("training.maxIterations", 0)
	v.SetDefault("training.logEvery", internal.DefaultLogEvery)
	v.SetDefault("training.normalization", "none")

	v.SetDefault("corpus.dir", "")
	v.SetDefault("corpus.extensions", []string{".txt"})
	v.SetDefault("corpus.ignoreFile", internal.DefaultIgnoreFile)
	v.SetDefault("corpus.workers", 8)

	v.SetDefault("encoder.cacheSize", 4096)
	v.SetDefault("encoder.maxSeqLen", 0)
	v.SetDefault("encoder.workers", 0)
	v.SetDefault("encoder.padID", 0)

	v.SetDefault("store.dsn", internal.DefaultStoreDSN)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix(internal.DefaultAppName)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// no config file; defaults and environment apply
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return &cfg, nil
}

// Validate checks values that would make training or encoding fail later.
func (c *Config) Validate() error {
	if c.Training.VocabSize <= 0 {
		return fmt.Errorf("training.vocabSize must be positive, got %d", c.Training.VocabSize)
	}
	if c.Training.MaxIterations < 0 {
		return fmt.Errorf("training.maxIterations must not be negative, got %d", c.Training.MaxIterations)
	}
	if c.Encoder.CacheSize < 0 {
		return fmt.Errorf("encoder.cacheSize must not be negative, got %d", c.Encoder.CacheSize)
	}
	if c.Encoder.MaxSeqLen < 0 {
		return fmt.Errorf("encoder.maxSeqLen must not be negative, got %d", c.Encoder.MaxSeqLen)
	}
	return nil
}
