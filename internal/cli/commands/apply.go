package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdest/internal/plan"
	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/migrate"
	"github.com/leapstack-labs/leapdest/pkg/tableops"
)

// ApplyOptions holds options for the apply command.
type ApplyOptions struct {
	File      string
	KeepGoing bool
}

// StepResult is the outcome of one plan step.
type StepResult struct {
	Step      int         `json:"step"`
	Kind      string      `json:"kind"`
	Operation string      `json:"operation"`
	Schema    string      `json:"schema"`
	Table     string      `json:"table"`
	Outcome   string      `json:"outcome"`
	Error     string      `json:"error,omitempty"`
	Described *core.Table `json:"described,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	opts := &ApplyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a plan of table operations and migrations",
		Long: `Run the steps of a YAML plan in order against the configured target.

Each step holds one request: create_table, alter_table, describe_table,
truncate_table or migrate. One outcome is reported per step. By default
the first step that does not succeed stops the plan.`,
		Example: `  # Apply a plan
  leapdest apply -f plan.yaml

  # Run every step even after a failure
  leapdest apply -f plan.yaml --keep-going -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApply(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Path to the plan file")
	cmd.Flags().BoolVar(&opts.KeepGoing, "keep-going", false, "Continue after a step does not succeed")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runApply(cmd *cobra.Command, opts *ApplyOptions) error {
	p, err := plan.Load(opts.File)
	if err != nil {
		return err
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	results := applyPlan(cmd.Context(), cc, p, opts.KeepGoing)

	failed := 0
	for _, r := range results {
		if r.Outcome != core.Success.String() {
			failed++
		}
	}

	if cc.Renderer.IsJSON() {
		if err := cc.Renderer.JSON(results); err != nil {
			return err
		}
	} else {
		rows := make([][]any, len(results))
		for i, r := range results {
			rows[i] = []any{r.Step, r.Operation, r.Schema + "." + r.Table, r.Outcome, r.Error}
		}
		cc.Renderer.Table("", []string{"step", "operation", "table", "outcome", "error"}, rows)
		cc.Renderer.Println(fmt.Sprintf("Applied %d of %d steps in %s", len(results)-failed, len(p.Steps), time.Since(start).Round(time.Millisecond)))
		for _, r := range results {
			if r.Described != nil {
				renderTable(cc.Renderer, r.Schema, r.Described)
			}
		}
	}

	if failed > 0 || len(results) < len(p.Steps) {
		return fmt.Errorf("%d of %d steps did not succeed", failed+len(p.Steps)-len(results), len(p.Steps))
	}
	return nil
}

// applyPlan runs the plan's steps in order. Unless keepGoing is set, it
// stops after the first step that does not succeed.
func applyPlan(ctx context.Context, cc *CommandContext, p *plan.Plan, keepGoing bool) []StepResult {
	results := make([]StepResult, 0, len(p.Steps))
	for i, step := range p.Steps {
		r := applyStep(ctx, cc, p.Schema, step)
		r.Step = i + 1
		results = append(results, r)
		if r.Outcome != core.Success.String() && !keepGoing {
			break
		}
	}
	return results
}

func applyStep(ctx context.Context, cc *CommandContext, planSchema string, step plan.Step) StepResult {
	schema := func(s string) string {
		if s != "" {
			return s
		}
		return cc.Tables.Schema(planSchema)
	}

	r := StepResult{Kind: step.Kind(), Operation: step.Kind()}
	var res core.Result

	switch {
	case step.CreateTable != nil:
		r.Schema, r.Table = schema(""), step.CreateTable.Name
		res = cc.Tables.CreateTable(ctx, r.Schema, step.CreateTable)
	case step.AlterTable != nil:
		r.Schema, r.Table = schema(step.AlterTable.Schema), step.AlterTable.Table.Name
		res = cc.Tables.AlterTable(ctx, r.Schema, step.AlterTable.Table, step.AlterTable.DropColumns)
	case step.DescribeTable != nil:
		r.Schema, r.Table = schema(step.DescribeTable.Schema), step.DescribeTable.Table
		r.Described, res = cc.Tables.DescribeTable(ctx, r.Schema, r.Table)
	case step.TruncateTable != nil:
		t := step.TruncateTable
		r.Schema, r.Table = schema(t.Schema), t.Table
		req := tableops.TruncateRequest{Schema: r.Schema, Table: t.Table}
		if t.Soft != nil {
			req.Soft = &tableops.SoftTruncate{
				DeletedColumn: t.Soft.DeletedColumn,
				SyncedColumn:  t.Soft.SyncedColumn,
				Before:        t.Soft.Before,
			}
		}
		res = cc.Tables.TruncateTable(ctx, req)
	case step.Migrate != nil:
		m := step.Migrate
		op := m.Operation()
		r.Schema, r.Table = schema(m.Schema), m.Table
		r.Operation = migrate.KindOf(op)
		res = cc.Migrator.Migrate(ctx, &migrate.Request{Schema: r.Schema, Table: m.Table, Operation: op})
	default:
		res = core.ResultOf(fmt.Errorf("%w: empty step", core.ErrUnsupportedOperation))
	}

	r.Outcome = res.Outcome.String()
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	return r
}
