// Package config loads bot configuration from environment variables and an optional settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is read when BOT_SETTINGS_FILE is not set.
const DefaultSettingsFile = "settings.yaml"

// Config holds all bot configuration.
// It is built once at startup and handed to each component; nothing reads the
// environment after Load returns.
type Config struct {
	// session bootstrap. SessionID downloads SessionDir/SessionFile for other
	// tools; it does not log the bot in. The WhatsApp login lives in the
	// WADBAddress device store and is paired by QR code.
	SessionID           string
	SessionDir          string
	SessionFile         string
	SessionGistOwner    string
	SessionFetchTimeout time.Duration

	// shortener
	ShortenerAPIKey  string
	ShortenerBaseURL string
	ShortenerTimeout time.Duration

	// channel forwarding
	NewsletterName   string
	ForwardAsChannel bool

	// commands
	CommandPrefix string

	// whatsapp device store
	WADBDialect string
	WADBAddress string
	WASendRPS   float64

	// events
	NatsURL string

	// server
	HTTPPort int

	// logging
	LogLevel string
	LogFile  string
}

// Settings is the optional YAML settings file. Environment variables win over it.
type Settings struct {
	NewsletterName string `yaml:"newsletter_name"`
	CommandPrefix  string `yaml:"command_prefix"`
	GistOwner      string `yaml:"gist_owner"`
}

// Load reads configuration from environment variables with sensible defaults.
// Values from the settings file are used as defaults for the matching keys.
func Load() (*Config, error) {
	settings, err := LoadSettings(getEnv("BOT_SETTINGS_FILE", DefaultSettingsFile))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SessionID:           strings.TrimSpace(getEnv("SESSION_ID", "")),
		SessionDir:          getEnv("SESSION_DIR", "./session"),
		SessionFile:         getEnv("SESSION_FILE", "creds.json"),
		SessionGistOwner:    getEnv("SESSION_GIST_OWNER", orDefault(settings.GistOwner, "stormfiber")),
		SessionFetchTimeout: getEnvDuration("SESSION_FETCH_TIMEOUT", 30*time.Second),
		ShortenerAPIKey:     getEnv("QASIMDEV_APIKEY", "qasim-dev"),
		ShortenerBaseURL:    getEnv("SHORTENER_BASE_URL", "https://api.qasimdev.dpdns.org/api/shortener/tinycc"),
		ShortenerTimeout:    getEnvDuration("SHORTENER_TIMEOUT", 20*time.Second),
		NewsletterName:      getEnv("NEWSLETTER_NAME", settings.NewsletterName),
		ForwardAsChannel:    getEnvBool("FORWARD_AS_CHANNEL", false),
		CommandPrefix:       getEnv("COMMAND_PREFIX", orDefault(settings.CommandPrefix, ".")),
		WADBDialect:         getEnv("WA_DB_DIALECT", "sqlite3"),
		WADBAddress:         getEnv("WA_DB_ADDRESS", "file:./session/whatsmeow.db?_foreign_keys=on"),
		WASendRPS:           getEnvFloat("WA_SEND_RPS", 1.0),
		NatsURL:             getEnv("NATS_URL", ""),
		HTTPPort:            getEnvInt("HTTP_PORT", 3100),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFile:             getEnv("LOG_FILE", "./logs/bot.log"),
	}

	if cfg.SessionFetchTimeout <= 0 {
		return nil, fmt.Errorf("SESSION_FETCH_TIMEOUT must be positive, got %s", cfg.SessionFetchTimeout)
	}
	if cfg.ShortenerTimeout <= 0 {
		return nil, fmt.Errorf("SHORTENER_TIMEOUT must be positive, got %s", cfg.ShortenerTimeout)
	}

	return cfg, nil
}

// LoadSettings reads the YAML settings file. A missing file yields empty settings.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, s.Validate()
}

// Validate rejects settings the bot cannot run with.
func (s Settings) Validate() error {
	if strings.ContainsFunc(s.CommandPrefix, unicode.IsSpace) {
		return fmt.Errorf("command_prefix %q must not contain whitespace", s.CommandPrefix)
	}
	if strings.Contains(s.GistOwner, "/") {
		return fmt.Errorf("gist_owner %q must be a bare user name", s.GistOwner)
	}
	return nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}

func orDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}
