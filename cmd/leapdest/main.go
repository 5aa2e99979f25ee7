// Package main provides the leapdest CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapdest/internal/cli"

	// Register destination adapters.
	_ "github.com/leapstack-labs/leapdest/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapdest/pkg/adapters/postgres"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
