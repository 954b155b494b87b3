package provider

import (
	"sort"
	"strings"
	"sync"

	"chorus/internal/config"
	"chorus/internal/logger"
	"chorus/internal/orchestrator"
)

// Registry maps model identifiers to invokers. Built once at startup from
// config, optionally rebuilt on config reload; lookups are case-insensitive
// and never use reflection.
type Registry struct {
	mu       sync.RWMutex
	invokers map[string]orchestrator.Invoker
}

func NewRegistry(models []config.ModelConfig) *Registry {
	r := &Registry{}
	r.Reload(models)
	return r
}

// Reload swaps the invoker table for one built from the given entries.
// Disabled entries are skipped. Breakers do not survive a reload; a backend
// re-enters with a closed circuit.
func (r *Registry) Reload(models []config.ModelConfig) {
	table := make(map[string]orchestrator.Invoker, len(models))
	for _, m := range models {
		if !m.Enabled {
			continue
		}
		id := strings.TrimSpace(m.ID)
		if id == "" {
			logger.Warnf("skipping model entry without id (model=%s)", m.Model)
			continue
		}
		var breaker *Breaker
		if m.Breaker.Enabled {
			breaker = NewBreaker(id, m.Breaker.Threshold, m.Breaker.Cooldown())
		}
		table[strings.ToLower(id)] = NewChatInvoker(id, m.APIURL, m.APIKey, m.Model, m.Headers, breaker)
	}
	r.mu.Lock()
	r.invokers = table
	r.mu.Unlock()
	logger.Infof("provider registry loaded: %d backend(s)", len(table))
}

func (r *Registry) Resolve(model string) (orchestrator.Invoker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invokers[strings.ToLower(strings.TrimSpace(model))]
	return inv, ok
}

// IDs returns the registered identifiers, sorted for stable logs.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.invokers))
	for _, inv := range r.invokers {
		out = append(out, inv.ID())
	}
	sort.Strings(out)
	return out
}
