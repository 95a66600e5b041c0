package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingToken is returned when the bot is started without a token.
var ErrMissingToken = errors.New("TELEGRAM_BOT_TOKEN is not set")

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
type Config struct {
	TelegramBotToken string        `mapstructure:"TELEGRAM_BOT_TOKEN"`
	BadgerDBPath     string        `mapstructure:"BADGERDB_PATH"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	HTTPTimeout      time.Duration `mapstructure:"HTTP_TIMEOUT"`
	HeadlessTimeout  time.Duration `mapstructure:"HEADLESS_TIMEOUT"`
	BrowserFallback  bool          `mapstructure:"BROWSER_FALLBACK"`
	MetricsAddr      string        `mapstructure:"METRICS_ADDR"`

	// Headless session. The user ID wins when both are set.
	SessionUserID string `mapstructure:"SESSION_USER_ID"`
	SessionEmail  string `mapstructure:"SESSION_EMAIL"`
}

var defaults = map[string]any{
	"TELEGRAM_BOT_TOKEN": "",
	"BADGERDB_PATH":      "./badger_data",
	"LOG_LEVEL":          "info",
	"HTTP_TIMEOUT":       "15s",
	"HEADLESS_TIMEOUT":   "5s",
	"BROWSER_FALLBACK":   false,
	"METRICS_ADDR":       "",
	"SESSION_USER_ID":    "",
	"SESSION_EMAIL":      "",
}

// LoadConfig reads configuration from config.yaml in path, overridden by
// environment variables.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Env vars are only picked up by Unmarshal for keys viper already knows.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if cfg.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", cfg.HTTPTimeout)
	}
	if cfg.HeadlessTimeout <= 0 {
		return Config{}, fmt.Errorf("HEADLESS_TIMEOUT must be positive, got %s", cfg.HeadlessTimeout)
	}
	return cfg, nil
}

// RequireTelegram validates the settings the chat bot needs.
func (c Config) RequireTelegram() error {
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		return ErrMissingToken
	}
	return nil
}
