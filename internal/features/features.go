package features

import (
	"sort"
	"sync"
)

// Flag names understood by the service.
const (
	// CacheEnabled serves farmer standings from the read-model cache.
	CacheEnabled = "cache_enabled"
	// EventHooksEnabled publishes ledger events after commit.
	EventHooksEnabled = "event_hooks_enabled"
	// BadgeAwards grants badges inside the transaction that raises a farmer's points.
	BadgeAwards = "badge_awards"
)

// FeatureFlag represents a feature flag configuration.
type FeatureFlag struct {
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// Manager manages feature flags. It is safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	flags map[string]*FeatureFlag
}

// NewManager creates an empty feature flag manager.
func NewManager() *Manager {
	return &Manager{flags: make(map[string]*FeatureFlag)}
}

// Defaults holds the initial state of the built-in flags.
type Defaults struct {
	Cache       bool
	EventHooks  bool
	BadgeAwards bool
}

// NewDefaultManager registers the built-in flags.
func NewDefaultManager(d Defaults) *Manager {
	m := NewManager()
	m.Register(CacheEnabled, d.Cache, "serve farmer standings from the read-model cache")
	m.Register(EventHooksEnabled, d.EventHooks, "publish ledger events after commit")
	m.Register(BadgeAwards, d.BadgeAwards, "award badges when points cross a threshold")
	return m
}

// Register registers a new feature flag.
func (m *Manager) Register(name string, enabled bool, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.flags[name] = &FeatureFlag{
		Name:        name,
		Enabled:     enabled,
		Description: description,
	}
}

// IsEnabled checks if a feature flag is enabled. Unknown flags are disabled. A nil
// manager reports every flag as enabled.
func (m *Manager) IsEnabled(name string) bool {
	if m == nil {
		return true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, exists := m.flags[name]
	if !exists {
		return false
	}
	return flag.Enabled
}

// Set enables or disables a registered flag and reports whether it exists.
func (m *Manager) Set(name string, enabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	flag, exists := m.flags[name]
	if !exists {
		return false
	}
	flag.Enabled = enabled
	return true
}

// Enable enables a feature flag.
func (m *Manager) Enable(name string) bool {
	return m.Set(name, true)
}

// Disable disables a feature flag.
func (m *Manager) Disable(name string) bool {
	return m.Set(name, false)
}

// List returns a copy of all flags sorted by name.
func (m *Manager) List() []FeatureFlag {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]FeatureFlag, 0, len(m.flags))
	for _, f := range m.flags {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
