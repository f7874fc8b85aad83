package core

import (
	"fmt"
	"sync"
)

var (
	registry     = make(map[string]TableDefinition)
	registryKeys []string
	registryMu   sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if the definition is invalid or its name is already taken.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if err := def.Validate(); err != nil {
		panic(fmt.Sprintf("invalid table definition: %v", err))
	}
	if _, exists := registry[def.Name]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Name))
	}

	registry[def.Name] = def
	registryKeys = append(registryKeys, def.Name)
}

// Get returns a table definition by name.
// Returns false if not found.
func Get(name string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[name]
	return def, ok
}

// All returns all registered table definitions in registration order.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registryKeys))
	for _, name := range registryKeys {
		result = append(result, registry[name])
	}
	return result
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered tables.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableDefinition)
	registryKeys = nil
}
