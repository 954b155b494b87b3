package config

import (
	"strings"
	"time"
)

// Config is the root configuration for chorus.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Orchestrate OrchestrateConfig `mapstructure:"orchestrate"`
	Models      []ModelConfig     `mapstructure:"models"`
}

type AppConfig struct {
	LogLevel     string `mapstructure:"log_level"`
	LogPath      string `mapstructure:"log_path"`
	HTTPAddr     string `mapstructure:"http_addr"`
	DumpPayloads bool   `mapstructure:"dump_payloads"`
	DumpPath     string `mapstructure:"dump_path"`
}

// OrchestrateConfig bounds every run started from this process.
type OrchestrateConfig struct {
	TimeoutMs     int    `mapstructure:"timeout_ms"`
	MaxTimeoutMs  int    `mapstructure:"max_timeout_ms"`
	MaxRetries    int    `mapstructure:"max_retries"`
	BaseBackoffMs int    `mapstructure:"base_backoff_ms"`
	MaxBackoffMs  int    `mapstructure:"max_backoff_ms"`
	ReportDir     string `mapstructure:"report_dir"`
}

func (o OrchestrateConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutMs) * time.Millisecond
}

func (o OrchestrateConfig) MaxTimeout() time.Duration {
	return time.Duration(o.MaxTimeoutMs) * time.Millisecond
}

func (o OrchestrateConfig) BaseBackoff() time.Duration {
	return time.Duration(o.BaseBackoffMs) * time.Millisecond
}

func (o OrchestrateConfig) MaxBackoff() time.Duration {
	return time.Duration(o.MaxBackoffMs) * time.Millisecond
}

// ModelConfig is one registry entry: a named backend reachable over an
// OpenAI-compatible chat endpoint.
type ModelConfig struct {
	ID      string            `mapstructure:"id"`
	APIURL  string            `mapstructure:"api_url"`
	APIKey  string            `mapstructure:"api_key"`
	Model   string            `mapstructure:"model"`
	Enabled bool              `mapstructure:"enabled"`
	Headers map[string]string `mapstructure:"headers"`
	Breaker BreakerConfig     `mapstructure:"breaker"`
}

// BreakerConfig controls the optional per-backend circuit breaker. Disabled
// unless switched on explicitly.
type BreakerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	Threshold       int  `mapstructure:"threshold"`
	CooldownSeconds int  `mapstructure:"cooldown_seconds"`
}

func (b BreakerConfig) Cooldown() time.Duration {
	return time.Duration(b.CooldownSeconds) * time.Second
}

// keySet tracks the field paths explicitly present in the config files, so
// defaults only fill genuinely unset keys.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault is one field's defaulting rule.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
