// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdest/internal/cli/config"
	"github.com/leapstack-labs/leapdest/internal/cli/output"
	logutil "github.com/leapstack-labs/leapdest/internal/testutil"
)

// NewTestConfig returns a configuration for the given target with the
// journal in a temp dir and JSON output.
func NewTestConfig(t *testing.T, targetType, database string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Target = &config.TargetConfig{Type: targetType, Database: database}
	cfg.JournalPath = filepath.Join(t.TempDir(), "journal.db")
	cfg.OutputFormat = string(output.ModeJSON)
	return cfg
}

// WritePlan writes a plan file into a temp dir and returns its path.
func WritePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write plan: %v", err)
	}
	return path
}

// Execute runs cmd with args under cfg and returns its captured stdout and stderr.
// Usage and error printing are silenced as they are under the root command.
func Execute(t *testing.T, cfg *config.Config, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	ctx := config.WithConfig(context.Background(), cfg)
	ctx = config.WithLogger(ctx, logutil.NewTestLogger(t))
	err = cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode.
func NewTestRenderer(mode output.Mode) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRenderer(out, errOut, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
