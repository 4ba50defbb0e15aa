package config

import (
	"fmt"
	"os"
	"time"
)

const (
	PlatformNative = "native"
	PlatformWeb    = "web"

	StrategyDictionary = "dictionary"
	StrategyBatch      = "batch"
)

// Config holds runtime settings for the cropdoc CLI.
//
// BaseURL, when set, replaces the platform-derived API address. RedisURL and
// SessionTTL only matter on the web platform; the S3 fields are used to
// resolve s3:// media references there.
type Config struct {
	Platform       string
	BaseURL        string
	NativeHost     string
	WebHost        string
	Port           int
	RequestTimeout time.Duration

	DataDir     string
	StoreSecret string

	RedisURL    string
	RedisPrefix string
	ClientID    string
	SessionTTL  time.Duration

	DefaultLanguage     string
	TranslationStrategy string

	LogFormat string
	LogLevel  string

	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Platform = PlatformNative
	c.NativeHost = "10.163.32.227"
	c.WebHost = "localhost"
	c.Port = 5000
	c.RequestTimeout = 30 * time.Second
	c.DataDir = ".cropdoc"
	c.RedisURL = "redis://localhost:6379/0"
	c.RedisPrefix = "cropdoc"
	c.SessionTTL = 30 * time.Minute
	c.DefaultLanguage = "en"
	c.TranslationStrategy = StrategyDictionary
	c.LogFormat = "text"
	c.LogLevel = "info"
	c.S3Region = "us-east-1"
}

// Validate rejects values the rest of the client cannot act on.
func (c *Config) Validate() error {
	switch c.Platform {
	case PlatformNative, PlatformWeb:
	default:
		return fmt.Errorf("unknown platform %q", c.Platform)
	}
	switch c.TranslationStrategy {
	case StrategyDictionary, StrategyBatch:
	default:
		return fmt.Errorf("unknown translation strategy %q", c.TranslationStrategy)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags. Later sources take precedence.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
