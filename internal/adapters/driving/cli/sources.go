package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

var (
	sourceAddName   string
	sourceAddConfig []string
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage document sources",
	Long:  `Add, list and remove the sources documents are indexed from.`,
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add [type]",
	Short: "Add a source",
	Long: `Adds a source of the given type. Connector configuration is passed
as repeated -c key=value flags:

  quarry sources add upload -c path=~/notes
  quarry sources add drive --name "Team Drive" -c token="$(cat token.json)"

Run without a type to list the available source types and their
config keys.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSourcesAdd,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourcesList,
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove [source-id]",
	Short: "Remove a source and its indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesRemove,
}

func init() {
	sourcesAddCmd.Flags().StringVar(&sourceAddName, "name", "", "display name for the source")
	sourcesAddCmd.Flags().StringArrayVarP(&sourceAddConfig, "config", "c", nil, "connector config as key=value (repeatable)")
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	if connectorRegistry == nil {
		return errors.New("connector registry not configured")
	}

	if len(args) == 0 {
		return outputSourceTypes(cmd)
	}

	if sourceService == nil {
		return errors.New("source service not configured")
	}

	config, err := parseConfigPairs(sourceAddConfig)
	if err != nil {
		return err
	}

	name := sourceAddName
	if name == "" {
		name = args[0]
	}

	source := domain.Source{
		Type:   args[0],
		Name:   name,
		Config: config,
	}

	created, err := sourceService.Add(context.Background(), source)
	if err != nil {
		return fmt.Errorf("failed to add source: %w", err)
	}

	cmd.Printf("Added source: %s (%s)\n", created.ID, created.Type)
	cmd.Println("Run 'quarry sync' to index it.")
	return nil
}

func runSourcesList(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	sources, err := sourceService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No configured sources.")
		cmd.Println("Add one with 'quarry sources add'.")
		return nil
	}

	cmd.Println("Configured sources:")
	cmd.Println()
	for i := range sources {
		cmd.Printf("  %s  %s (%s)\n", sources[i].ID, sources[i].Name, sources[i].Type)
	}
	return nil
}

func runSourcesRemove(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	if err := sourceService.Remove(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to remove source: %w", err)
	}

	cmd.Printf("Removed source: %s\n", args[0])
	return nil
}

func outputSourceTypes(cmd *cobra.Command) error {
	types := connectorRegistry.Types()
	if len(types) == 0 {
		cmd.Println("No source types available.")
		return nil
	}

	cmd.Println("Available source types:")
	cmd.Println()
	for _, ct := range types {
		cmd.Printf("  %s - %s\n", ct.ID, ct.Name)
		if ct.Description != "" {
			cmd.Printf("      %s\n", ct.Description)
		}
		if len(ct.ConfigKeys) > 0 {
			cmd.Println("      Config:")
			for _, key := range ct.ConfigKeys {
				marker := ""
				if key.Required {
					marker = " (required)"
				}
				cmd.Printf("        %s%s - %s\n", key.Key, marker, key.Description)
			}
		}
		cmd.Println()
	}
	cmd.Println("Add one with 'quarry sources add <type> -c key=value'.")
	return nil
}

// parseConfigPairs turns repeated key=value flags into a config map.
func parseConfigPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	config := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid config %q, expected key=value", pair)
		}
		config[key] = value
	}
	return config, nil
}
