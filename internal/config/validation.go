package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Orchestrate.validate(); err != nil {
		return err
	}
	return validateModels(c.Models)
}

func (o *OrchestrateConfig) validate() error {
	if o.TimeoutMs <= 0 {
		return fmt.Errorf("orchestrate.timeout_ms must be > 0")
	}
	if o.MaxTimeoutMs > 0 && o.TimeoutMs > o.MaxTimeoutMs {
		return fmt.Errorf("orchestrate.timeout_ms (%d) exceeds max_timeout_ms (%d)", o.TimeoutMs, o.MaxTimeoutMs)
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("orchestrate.max_retries must be >= 0")
	}
	if o.BaseBackoffMs <= 0 {
		return fmt.Errorf("orchestrate.base_backoff_ms must be > 0")
	}
	if o.MaxBackoffMs < o.BaseBackoffMs {
		return fmt.Errorf("orchestrate.max_backoff_ms (%d) must be >= base_backoff_ms (%d)", o.MaxBackoffMs, o.BaseBackoffMs)
	}
	return nil
}

func validateModels(models []ModelConfig) error {
	if len(models) == 0 {
		return fmt.Errorf("models requires at least one entry")
	}
	seen := make(map[string]struct{}, len(models))
	for _, m := range models {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return fmt.Errorf("models contains entry without id (model=%s)", m.Model)
		}
		if _, dup := seen[strings.ToLower(id)]; dup {
			return fmt.Errorf("models contains duplicate id: %s", id)
		}
		seen[strings.ToLower(id)] = struct{}{}
		if strings.TrimSpace(m.Model) == "" {
			return fmt.Errorf("models.%s missing model", id)
		}
		if strings.TrimSpace(m.APIURL) == "" {
			return fmt.Errorf("models.%s missing api_url", id)
		}
	}
	return nil
}
