package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cropdoc/internal/flagx"
	"github.com/dmitrijs2005/cropdoc/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Zero values leave the
// corresponding Config field untouched.
type JsonConfig struct {
	Platform       string         `json:"platform"`
	BaseURL        string         `json:"base_url"`
	NativeHost     string         `json:"native_host"`
	WebHost        string         `json:"web_host"`
	Port           int            `json:"port"`
	RequestTimeout timex.Duration `json:"request_timeout"`

	DataDir     string `json:"data_dir"`
	StoreSecret string `json:"store_secret"`

	RedisURL    string         `json:"redis_url"`
	RedisPrefix string         `json:"redis_prefix"`
	ClientID    string         `json:"client_id"`
	SessionTTL  timex.Duration `json:"session_ttl"`

	DefaultLanguage     string `json:"default_language"`
	TranslationStrategy string `json:"translation_strategy"`

	LogFormat string `json:"log_format"`
	LogLevel  string `json:"log_level"`

	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays cfg with the file named by -c/-config, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.Platform, jc.Platform)
	setString(&cfg.BaseURL, jc.BaseURL)
	setString(&cfg.NativeHost, jc.NativeHost)
	setString(&cfg.WebHost, jc.WebHost)
	if jc.Port != 0 {
		cfg.Port = jc.Port
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.StoreSecret, jc.StoreSecret)
	setString(&cfg.RedisURL, jc.RedisURL)
	setString(&cfg.RedisPrefix, jc.RedisPrefix)
	setString(&cfg.ClientID, jc.ClientID)
	if jc.SessionTTL.Duration != 0 {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
	setString(&cfg.DefaultLanguage, jc.DefaultLanguage)
	setString(&cfg.TranslationStrategy, jc.TranslationStrategy)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)

	return nil
}
