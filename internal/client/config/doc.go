// Package config loads runtime configuration for the cropdoc CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   API base URL override, e.g. http://localhost:5000/api/
//	-p string   platform: native or web
//	-l string   default display language
//	-d string   data directory for the native store
//	-t int      request timeout (seconds)
//
// # JSON schema
//
// Durations use timex.Duration, so "30s" and integer nanoseconds both work:
//
//	{
//	  "platform": "web",
//	  "base_url": "http://localhost:5000/api/",
//	  "request_timeout": "30s",
//	  "redis_url": "redis://localhost:6379/0",
//	  "session_ttl": "30m",
//	  "translation_strategy": "batch",
//	  "log_format": "zap"
//	}
package config
