package metastore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdest/pkg/adapter"
	"github.com/leapstack-labs/leapdest/pkg/core"
)

// MemoryType selects InMemoryStore in a target configuration.
const MemoryType = "memory"

// Open creates the store selected by cfg.Type. Adapter targets must be
// registered by importing their package.
func Open(ctx context.Context, cfg core.AdapterConfig, logger *slog.Logger) (core.Store, error) {
	if cfg.Type == MemoryType {
		return NewInMemoryStore(logger), nil
	}

	a, err := adapter.NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s target: %w", cfg.Type, err)
	}
	return NewAdapterStore(a, logger), nil
}
