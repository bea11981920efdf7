package base

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// SportPlugin defines the interface each sport plugin must implement. A
// plugin translates its sport's native record shapes into the neutral
// models and supplies the LeaguePolicy the engine runs with.
type SportPlugin interface {
	Init(overrides PolicyOverrides) error
	Policy() LeaguePolicy
	MapDraftee(raw json.RawMessage) (*models.Draftee, error)
	MapDraftPick(raw json.RawMessage) (*models.DraftPick, error)
}

var (
	registry   = make(map[string]SportPlugin)
	registryMu sync.RWMutex
)

// RegisterPlugin adds a plugin implementation under a key.
// It should be called in each sport plugin's init() function.
// The plugin will be initialized later when retrieved.
func RegisterPlugin(key string, plugin SportPlugin) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if key == "" {
		return fmt.Errorf("plugin key cannot be empty")
	}
	if _, exists := registry[key]; exists {
		return fmt.Errorf("plugin already registered for key %q", key)
	}
	registry[key] = plugin
	return nil
}

// GetPlugin retrieves a plugin by key or returns an error if not found.
func GetPlugin(key string) (SportPlugin, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	plugin, exists := registry[key]
	if !exists {
		return nil, fmt.Errorf("no sport plugin registered for key %q", key)
	}
	return plugin, nil
}

// InitializePlugin initializes a specific plugin with config overrides and
// validates the resulting policy.
func InitializePlugin(key string, overrides PolicyOverrides) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	plugin, exists := registry[key]
	if !exists {
		return fmt.Errorf("no sport plugin registered for key %q", key)
	}
	if err := plugin.Init(overrides); err != nil {
		return fmt.Errorf("failed to init plugin %q: %w", key, err)
	}
	if err := plugin.Policy().Validate(); err != nil {
		return fmt.Errorf("invalid policy for plugin %q: %w", key, err)
	}
	return nil
}

// RegisteredPlugins returns the registered keys in sorted order.
func RegisteredPlugins() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	keys := make([]string, 0, len(registry))
	for key := range registry {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
