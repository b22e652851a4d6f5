package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch [source-id]",
	Short: "Stream source changes into the index",
	Long: `Watches sources for changes and feeds them straight into the
ingestion pipeline. With a source ID only that source is watched,
otherwise every source that supports watching is. Blocks until
interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	ctx := cmd.Context()

	if len(args) > 0 {
		sourceID := args[0]
		cmd.Printf("Watching source %s, press ctrl-c to stop.\n", sourceID)

		err := syncService.Watch(ctx, sourceID)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("watch failed: %w", err)
		}
		return nil
	}

	if sourceService == nil {
		return errors.New("source service not configured")
	}

	sources, err := sourceService.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}
	if len(sources) == 0 {
		cmd.Println("No configured sources to watch.")
		return nil
	}

	cmd.Printf("Watching %d source(s), press ctrl-c to stop.\n", len(sources))

	// One watcher per source. Results are collected after all watchers
	// return so output never interleaves.
	type watchResult struct {
		sourceID string
		err      error
	}

	var wg sync.WaitGroup
	results := make(chan watchResult, len(sources))
	for i := range sources {
		wg.Add(1)
		go func(sourceID string) {
			defer wg.Done()
			results <- watchResult{sourceID, syncService.Watch(ctx, sourceID)}
		}(sources[i].ID)
	}
	wg.Wait()
	close(results)

	var errs []error
	for result := range results {
		switch {
		case result.err == nil || errors.Is(result.err, context.Canceled):
		case errors.Is(result.err, domain.ErrWatchUnsupported):
			cmd.Printf("Source %s does not support watching, skipped.\n", result.sourceID)
		default:
			errs = append(errs, fmt.Errorf("source %s: %w", result.sourceID, result.err))
		}
	}
	return errors.Join(errs...)
}
