// Package config assembles runtime settings from an optional YAML file,
// the environment and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/prayash-yosa/Mindforge-new/internal/llm"
	"github.com/prayash-yosa/Mindforge-new/internal/logging"
)

// FileName is the config file looked up when no path is given.
const FileName = "mindforge"

// Config is the fully resolved configuration.
type Config struct {
	AI          llm.Config
	Log         logging.Config
	DB          string
	MetricsFile string
}

// file mirrors the YAML layout and env bindings.
type file struct {
	AI          aiSection      `mapstructure:"ai"`
	Log         logging.Config `mapstructure:"log"`
	DB          string         `mapstructure:"db"`
	MetricsFile string         `mapstructure:"metrics_file"`
}

type aiSection struct {
	Provider         string  `mapstructure:"provider"`
	APIKey           string  `mapstructure:"api_key"`
	BaseURL          string  `mapstructure:"base_url"`
	GradingModel     string  `mapstructure:"grading_model"`
	FeedbackModel    string  `mapstructure:"feedback_model"`
	TimeoutMS        int     `mapstructure:"timeout_ms"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	Temperature      float64 `mapstructure:"temperature"`
	RetryMaxAttempts int     `mapstructure:"retry_max_attempts"`
}

var envBindings = map[string]string{
	"ai.provider":           "AI_PROVIDER",
	"ai.api_key":            "AI_API_KEY",
	"ai.base_url":           "AI_BASE_URL",
	"ai.grading_model":      "AI_GRADING_MODEL",
	"ai.feedback_model":     "AI_FEEDBACK_MODEL",
	"ai.timeout_ms":         "AI_TIMEOUT_MS",
	"ai.max_tokens":         "AI_MAX_TOKENS",
	"ai.temperature":        "AI_TEMPERATURE",
	"ai.retry_max_attempts": "AI_RETRY_MAX_ATTEMPTS",
	"log.level":             "LOG_LEVEL",
	"log.file":              "LOG_FILE",
	"log.max_size_mb":       "LOG_MAX_SIZE_MB",
	"log.max_backups":       "LOG_MAX_BACKUPS",
	"log.max_age_days":      "LOG_MAX_AGE_DAYS",
	"db":                    "MINDFORGE_DB",
	"metrics_file":          "MINDFORGE_METRICS_FILE",
}

func setDefaults(v *viper.Viper) {
	ai := llm.DefaultConfig()
	v.SetDefault("ai.provider", ai.Provider)
	v.SetDefault("ai.base_url", ai.BaseURL)
	v.SetDefault("ai.grading_model", ai.GradingModel)
	v.SetDefault("ai.feedback_model", ai.FeedbackModel)
	v.SetDefault("ai.timeout_ms", ai.Timeout.Milliseconds())
	v.SetDefault("ai.max_tokens", ai.MaxTokens)
	v.SetDefault("ai.temperature", ai.Temperature)
	v.SetDefault("ai.retry_max_attempts", ai.Retry.MaxAttempts)

	lg := logging.DefaultConfig()
	v.SetDefault("log.level", lg.Level)
	v.SetDefault("log.max_size_mb", lg.MaxSizeMB)
	v.SetDefault("log.max_backups", lg.MaxBackups)
	v.SetDefault("log.max_age_days", lg.MaxAgeDays)
}

// Load reads path if given, otherwise mindforge.yaml from the working
// directory or $XDG_CONFIG_HOME/mindforge. A missing default file is not
// an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "mindforge"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var f file
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg := &Config{
		AI:          f.AI.llmConfig(),
		Log:         f.Log,
		DB:          f.DB,
		MetricsFile: f.MetricsFile,
	}
	llm.Discover(&cfg.AI)

	if err := cfg.AI.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a aiSection) llmConfig() llm.Config {
	c := llm.DefaultConfig()
	c.Provider = a.Provider
	c.APIKey = a.APIKey
	c.BaseURL = a.BaseURL
	c.GradingModel = a.GradingModel
	c.FeedbackModel = a.FeedbackModel
	c.Timeout = time.Duration(a.TimeoutMS) * time.Millisecond
	c.MaxTokens = a.MaxTokens
	c.Temperature = a.Temperature
	c.Retry.MaxAttempts = a.RetryMaxAttempts
	return c
}
