package adapter

// Each destination driver (pkg/adapters/duckdb, pkg/adapters/postgres) registers
// a Factory under its target type from init(). metastore.Open builds the adapter
// named by target.type; the "memory" target never reaches the registry.

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Factory builds an unconnected adapter. A nil logger means discard.
type Factory func(*slog.Logger) Adapter

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a destination driver available under targetType.
// Registering the same type twice replaces the earlier factory.
func Register(targetType string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[targetType] = factory
}

// Get returns the factory registered for targetType.
func Get(targetType string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[targetType]
	return f, ok
}

// NewAdapter builds the driver for cfg.Type. The adapter still has to be connected.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("target type not specified")
	}
	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	return factory(logger), nil
}

// ListAdapters returns the registered target types, sorted.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether a driver exists for targetType.
func IsRegistered(targetType string) bool {
	_, ok := Get(targetType)
	return ok
}

// UnknownAdapterError is returned for a target type no driver registered.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: Check target.type in leapdest.yaml", e.Type, e.Available)
}
