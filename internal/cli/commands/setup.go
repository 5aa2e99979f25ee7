package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdest/internal/cli/config"
	"github.com/leapstack-labs/leapdest/internal/cli/output"
	"github.com/leapstack-labs/leapdest/internal/journal"
	"github.com/leapstack-labs/leapdest/internal/metrics"
	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/metastore"
	"github.com/leapstack-labs/leapdest/pkg/migrate"
	"github.com/leapstack-labs/leapdest/pkg/tableops"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Store    core.Store
	Journal  *journal.Journal
	Metrics  *metrics.Collector
	Migrator *migrate.Orchestrator
	Tables   *tableops.Service
}

// NewCommandContext connects to the configured target and opens the journal.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	ctx := cmd.Context()
	cc := NewCommandContextWithoutStore(cmd)

	store, err := metastore.Open(ctx, cc.Cfg.Target.AdapterConfig(), cc.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s target: %w", cc.Cfg.Target.Type, err)
	}
	cc.Store = store

	if cc.Cfg.JournalPath != "" {
		j, err := journal.Open(ctx, cc.Cfg.JournalPath, cc.Logger)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		cc.Journal = j
	}
	cc.Metrics = metrics.New()

	migrateOpts := []migrate.Option{
		migrate.WithDefaultSchema(cc.Cfg.DefaultSchema),
		migrate.WithLogger(cc.Logger),
		migrate.WithObserver(cc.Metrics),
	}
	tableOpts := []tableops.Option{
		tableops.WithDefaultSchema(cc.Cfg.DefaultSchema),
		tableops.WithLogger(cc.Logger),
		tableops.WithObserver(cc.Metrics),
	}
	if cc.Journal != nil {
		migrateOpts = append(migrateOpts, migrate.WithJournal(cc.Journal))
		tableOpts = append(tableOpts, tableops.WithJournal(cc.Journal))
	}
	cc.Migrator = migrate.New(store, migrateOpts...)
	cc.Tables = tableops.New(store, tableOpts...)

	return cc, cc.close, nil
}

// NewCommandContextWithoutStore creates a CommandContext without a target connection.
// Useful for commands that only read local state.
func NewCommandContextWithoutStore(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

func (cc *CommandContext) close() {
	if cc.Metrics != nil && cc.Cfg.MetricsTextfile != "" {
		if err := cc.Metrics.WriteTextfile(cc.Cfg.MetricsTextfile); err != nil {
			cc.Logger.Warn("failed to write metrics", slog.String("error", err.Error()))
		}
	}
	if cc.Journal != nil {
		_ = cc.Journal.Close()
	}
	if cc.Store != nil {
		if err := cc.Store.Close(); err != nil {
			cc.Logger.Warn("failed to close target", slog.String("error", err.Error()))
		}
	}
}

// openJournal opens the configured journal for reading.
func openJournal(ctx context.Context, cc *CommandContext) (*journal.Journal, error) {
	if cc.Cfg.JournalPath == "" {
		return nil, fmt.Errorf("journal_path is not configured")
	}
	return journal.Open(ctx, cc.Cfg.JournalPath, cc.Logger)
}
