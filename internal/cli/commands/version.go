package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdest/internal/cli/config"
	"github.com/leapstack-labs/leapdest/internal/cli/output"
	"github.com/leapstack-labs/leapdest/pkg/adapter"
	"github.com/leapstack-labs/leapdest/pkg/metastore"
)

// VersionInfo is what the version command reports.
type VersionInfo struct {
	Version  string   `json:"version"`
	Go       string   `json:"go"`
	Platform string   `json:"platform"`
	Targets  []string `json:"targets"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and supported targets",
		Long:  `Display the leapdest version, the Go runtime it was built with and the target types a destination can use.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := VersionInfo{
				Version:  version,
				Go:       runtime.Version(),
				Platform: runtime.GOOS + "/" + runtime.GOARCH,
				Targets:  append(adapter.ListAdapters(), metastore.MemoryType),
			}

			cfg := config.FromContext(cmd.Context())
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
			if r.IsJSON() {
				return r.JSON(info)
			}
			r.Println(fmt.Sprintf("leapdest v%s", info.Version))
			r.Println(fmt.Sprintf("Go %s %s", info.Go, info.Platform))
			r.Println(fmt.Sprintf("Targets: %v", info.Targets))
			return nil
		},
	}
}
