// Package cli implements the command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/core/ports/driving"
	"github.com/quarrylabs/quarry/internal/logger"
)

// Services the commands talk to. Set once at startup via SetServices;
// commands guard against the nil case so a partially wired binary fails
// with a clear message instead of a panic.
var (
	retrieveService   driving.RetrieveService
	sourceService     driving.SourceService
	syncService       driving.SyncService
	connectorRegistry driving.ConnectorRegistry
	configStore       driven.ConfigStore
	documentStore     driven.DocumentStore
	backgroundSync    driving.SchedulerService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Local-first hybrid document retrieval",
	Long: `Quarry indexes documents from configured sources and answers
queries with hybrid retrieval, fusing vector similarity and keyword
matching into a single ranked list.

Add a source, sync it, then search:

  quarry sources add upload -c path=~/notes
  quarry sync
  quarry search "deployment checklist"`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Services bundles everything the CLI needs from the application core.
type Services struct {
	Retrieve  driving.RetrieveService
	Source    driving.SourceService
	Sync      driving.SyncService
	Registry  driving.ConnectorRegistry
	Config    driven.ConfigStore
	Documents driven.DocumentStore

	// BackgroundSync is optional. When set, long-running commands start
	// it so the index stays fresh while they serve; one-shot commands
	// leave it alone.
	BackgroundSync driving.SchedulerService
}

// SetServices wires the application services into the command tree.
func SetServices(s *Services) {
	retrieveService = s.Retrieve
	sourceService = s.Source
	syncService = s.Sync
	connectorRegistry = s.Registry
	configStore = s.Config
	documentStore = s.Documents
	backgroundSync = s.BackgroundSync
}

// Execute runs the root command. The context is threaded through to the
// commands so long-running ones stop on interrupt. v overrides the
// build-time version string when non-empty.
func Execute(ctx context.Context, v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.ExecuteContext(ctx)
}
