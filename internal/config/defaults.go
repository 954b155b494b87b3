package config

import "strings"

const (
	defaultAppLogLevel    = "info"
	defaultAppHTTPAddr    = ":8085"
	defaultTimeoutMs      = 30000
	defaultMaxTimeoutMs   = 120000
	defaultMaxRetries     = 2
	defaultBaseBackoffMs  = 1000
	defaultMaxBackoffMs   = 8000
	defaultBreakThreshold = 5
	defaultBreakCooldown  = 30
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Orchestrate.applyDefaults(keys)
	for i := range c.Models {
		c.Models[i].applyDefaults()
	}
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (o *OrchestrateConfig) applyDefaults(keys keySet) {
	if o == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("orchestrate.timeout_ms", &o.TimeoutMs, defaultTimeoutMs),
		intFieldDefault("orchestrate.max_timeout_ms", &o.MaxTimeoutMs, defaultMaxTimeoutMs),
		fieldDefault{
			key:   "orchestrate.max_retries",
			need:  func() bool { return o.MaxRetries == 0 },
			apply: func() { o.MaxRetries = defaultMaxRetries },
		},
		intFieldDefault("orchestrate.base_backoff_ms", &o.BaseBackoffMs, defaultBaseBackoffMs),
		intFieldDefault("orchestrate.max_backoff_ms", &o.MaxBackoffMs, defaultMaxBackoffMs),
	)
}

func (m *ModelConfig) applyDefaults() {
	if m == nil {
		return
	}
	// Per-entry defaults cannot use key tracking: list items share one path.
	if m.Breaker.Threshold <= 0 {
		m.Breaker.Threshold = defaultBreakThreshold
	}
	if m.Breaker.CooldownSeconds <= 0 {
		m.Breaker.CooldownSeconds = defaultBreakCooldown
	}
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && *target <= 0
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
