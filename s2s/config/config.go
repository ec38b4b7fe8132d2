package config

import (
	"errors"
	"fmt"
	"strings"

	internal "github.com/ZanzyTHEbar/seq2seq-datakit/s2s"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ErrMissingKey marks a required configuration key that was not provided.
var ErrMissingKey = errors.New("missing required configuration key")

// Config stores all configuration of the pipeline.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Data  DataConfig  `mapstructure:"data"`
	Model ModelConfig `mapstructure:"model"`
}

// DataConfig stores corpus-related configuration.
type DataConfig struct {
	Src       string `mapstructure:"src"`
	Trg       string `mapstructure:"trg"`
	Train     string `mapstructure:"train"`
	Dev       string `mapstructure:"dev"`
	Test      string `mapstructure:"test"`
	Level     string `mapstructure:"level"`
	Lowercase bool   `mapstructure:"lowercase"`

	MaxSentLength int `mapstructure:"max_sent_length"`

	// VocLimit <= 0 means unbounded; VocMinFreq <= -1 disables the
	// frequency filter entirely.
	VocLimit   int    `mapstructure:"voc_limit"`
	VocMinFreq int    `mapstructure:"voc_min_freq"`
	SrcVocab   string `mapstructure:"src_vocab"`
	TrgVocab   string `mapstructure:"trg_vocab"`

	// WordPieceVocab is only consulted when level is "wordpiece".
	WordPieceVocab string `mapstructure:"wordpiece_vocab"`

	// Audio selects which side of the pair is audio ("src" or "trg");
	// empty means a plain text corpus.
	Audio          string `mapstructure:"audio"`
	MaxAudioLength int    `mapstructure:"max_audio_length"`
}

// ModelConfig carries the one model-side parameter the pipeline consumes:
// the feature dimensionality handed to the extractor.
type ModelConfig struct {
	FeatureDim int `mapstructure:"feature_dim"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Set default values
	v.SetDefault("data.lowercase", false)
	v.SetDefault("data.max_sent_length", 0)
	v.SetDefault("data.voc_limit", 0)
	v.SetDefault("data.voc_min_freq", 1)
	v.SetDefault("data.max_audio_length", 0)
	v.SetDefault("model.feature_dim", 80)

	v.AutomaticEnv()                                   // Read in environment variables that match
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // data.max_sent_length becomes DATA_MAX_SENT_LENGTH

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the presence of required keys. Surfaced immediately so a
// bad configuration never reaches the loaders.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"data.src", c.Data.Src},
		{"data.trg", c.Data.Trg},
		{"data.train", c.Data.Train},
		{"data.dev", c.Data.Dev},
		{"data.level", c.Data.Level},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingKey, r.key)
		}
	}
	if c.Data.MaxSentLength <= 0 {
		return fmt.Errorf("%w: data.max_sent_length", ErrMissingKey)
	}
	if c.Data.Audio != "" {
		if c.Data.Audio != "src" && c.Data.Audio != "trg" {
			return fmt.Errorf("data.audio must be \"src\" or \"trg\", got %q", c.Data.Audio)
		}
		if c.Data.MaxAudioLength <= 0 {
			return fmt.Errorf("%w: data.max_audio_length", ErrMissingKey)
		}
	}
	return nil
}

// LogConfig writes every configured key to the log, one line per leaf.
func LogConfig(cfg *Config, logger zerolog.Logger) {
	logLeaf := func(key string, value interface{}) {
		logger.Info().Interface("value", value).Msgf("cfg.%s", key)
	}
	logLeaf("data.src", cfg.Data.Src)
	logLeaf("data.trg", cfg.Data.Trg)
	logLeaf("data.train", cfg.Data.Train)
	logLeaf("data.dev", cfg.Data.Dev)
	logLeaf("data.test", cfg.Data.Test)
	logLeaf("data.level", cfg.Data.Level)
	logLeaf("data.lowercase", cfg.Data.Lowercase)
	logLeaf("data.max_sent_length", cfg.Data.MaxSentLength)
	logLeaf("data.voc_limit", cfg.Data.VocLimit)
	logLeaf("data.voc_min_freq", cfg.Data.VocMinFreq)
	logLeaf("data.src_vocab", cfg.Data.SrcVocab)
	logLeaf("data.trg_vocab", cfg.Data.TrgVocab)
	logLeaf("data.audio", cfg.Data.Audio)
	logLeaf("data.max_audio_length", cfg.Data.MaxAudioLength)
	logLeaf("model.feature_dim", cfg.Model.FeatureDim)
}
