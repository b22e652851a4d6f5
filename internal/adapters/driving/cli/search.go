package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

var (
	searchTopK          int
	searchVectorWeight  float64
	searchKeywordWeight float64
	searchJSON          bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs hybrid retrieval across all indexed documents.
Vector similarity and keyword matching run as separate channels and
their scores are fused into a single ranked list.

Flags left at zero fall back to the configured defaults. Setting one
weight while leaving the other at zero disables the zero channel, so
--keyword-weight 1 gives a pure keyword search.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results to return")
	searchCmd.Flags().Float64Var(&searchVectorWeight, "vector-weight", 0, "weight of the vector channel")
	searchCmd.Flags().Float64Var(&searchKeywordWeight, "keyword-weight", 0, "weight of the keyword channel")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrieveService == nil {
		return errors.New("retrieve service not configured")
	}

	ctx := context.Background()
	opts := domain.RetrieveOptions{
		K:             searchTopK,
		VectorWeight:  searchVectorWeight,
		KeywordWeight: searchKeywordWeight,
	}

	results, err := retrieveService.Retrieve(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.RetrievalResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.RetrievalResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		name := results[i].DocumentName
		if name == "" {
			name = results[i].Entry.DocumentID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, name, results[i].Score)
		cmd.Printf("      vector %.2f  keyword %.2f\n", results[i].VectorScore, results[i].KeywordScore)
		if snippet := makeSnippet(results[i].Entry.Text, 160); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}

	return nil
}

// makeSnippet collapses runs of whitespace and truncates to maxLen runes.
func makeSnippet(text string, maxLen int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= maxLen {
		return collapsed
	}
	return strings.TrimRight(string(runes[:maxLen]), " ") + "..."
}
