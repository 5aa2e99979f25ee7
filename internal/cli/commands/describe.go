package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapdest/internal/cli/output"
	"github.com/leapstack-labs/leapdest/pkg/core"
)

// maxConcurrentDescribes bounds the catalog queries in flight.
const maxConcurrentDescribes = 4

// DescribeOptions holds options for the describe command.
type DescribeOptions struct {
	Schema string
}

type describeResult struct {
	Schema  string      `json:"schema"`
	Name    string      `json:"name"`
	Outcome string      `json:"outcome"`
	Error   string      `json:"error,omitempty"`
	Table   *core.Table `json:"table,omitempty"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	opts := &DescribeOptions{}

	cmd := &cobra.Command{
		Use:   "describe <table>...",
		Short: "Show the current shape of destination tables",
		Long: `Describe one or more tables in the configured target.

Tables are described concurrently. A missing table is reported as not_found
and makes the command exit non-zero.`,
		Example: `  # Describe two tables in the default schema
  leapdest describe orders customers

  # Describe a table in another schema as JSON
  leapdest describe --schema raw events -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "Schema of the tables (default: default_schema)")

	return cmd
}

func runDescribe(cmd *cobra.Command, opts *DescribeOptions, tables []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	schema := cc.Tables.Schema(opts.Schema)
	results := make([]describeResult, len(tables))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(maxConcurrentDescribes)
	for i, name := range tables {
		g.Go(func() error {
			t, res := cc.Tables.DescribeTable(ctx, schema, name)
			r := describeResult{Schema: schema, Name: name, Outcome: res.Outcome.String(), Table: t}
			if res.Err != nil {
				r.Error = res.Err.Error()
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if cc.Renderer.IsJSON() {
		if err := cc.Renderer.JSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Table == nil {
				cc.Renderer.Warnf("%s.%s: %s", r.Schema, r.Name, r.Outcome)
				continue
			}
			renderTable(cc.Renderer, r.Schema, r.Table)
		}
	}

	missing := 0
	for _, r := range results {
		if r.Table == nil {
			missing++
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d tables could not be described", missing, len(tables))
	}
	return nil
}

// renderTable prints one table's columns.
func renderTable(r *output.Renderer, schema string, t *core.Table) {
	rows := make([][]any, len(t.Columns))
	for i, c := range t.Columns {
		pk := ""
		if c.PrimaryKey {
			pk = "yes"
		}
		rows[i] = []any{c.Name, c.Type.String(), formatParams(c.Params), pk}
	}
	r.Table(schema+"."+t.Name, []string{"column", "type", "params", "primary key"}, rows)
}

func formatParams(p *core.TypeParams) string {
	if p == nil {
		return ""
	}
	var parts []string
	if p.Decimal != nil {
		parts = append(parts, fmt.Sprintf("precision=%d scale=%d", p.Decimal.Precision, p.Decimal.Scale))
	}
	if p.StringByteLength > 0 {
		parts = append(parts, fmt.Sprintf("length=%d", p.StringByteLength))
	}
	return strings.Join(parts, " ")
}
