package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quarrylabs/quarry/internal/adapters/driven/ai"
	"github.com/quarrylabs/quarry/internal/adapters/driven/config/file"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, retrieval defaults and
sync interval. Run without a subcommand to show the current settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a single setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a setting",
	Long: `Sets a configuration key. Values that parse as booleans or numbers
are stored typed, everything else is stored as a string.

Keys:
  embedding.provider        ollama or openai
  embedding.model           embedding model name
  embedding.base_url        base URL for local providers
  retrieval.top_k           default number of results
  retrieval.vector_weight   default vector channel weight
  retrieval.keyword_weight  default keyword channel weight
  ingest.max_chunk_size     chunk size ceiling in characters
  ingest.chunk_overlap      overlap between split chunks
  sync.interval_minutes     background sync interval

Changing an embedding.* key validates the provider with a ping when
the configuration is complete.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Set the embedding API key",
	Long: `Prompts for the embedding provider API key without echoing it and
stores it in the configuration file.`,
	RunE: runSettingsSetKey,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	embedding := file.EmbeddingSettingsFrom(configStore)
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", embedding.Model)
	if embedding.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", embedding.BaseURL)
	}
	if embedding.Provider.RequiresAPIKey() {
		if embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !embedding.IsConfigured() {
		status = "not configured (keyword search only)"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	retrieval := file.RetrievalConfigFrom(configStore)
	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", retrieval.TopK)
	cmd.Printf("  Vector weight: %.2f\n", retrieval.VectorWeight)
	cmd.Printf("  Keyword weight: %.2f\n", retrieval.KeywordWeight)
	cmd.Printf("  Overfetch factor: %d\n", retrieval.OverfetchFactor)
	cmd.Println()

	cmd.Println("[Sync]")
	if interval := file.SyncIntervalFrom(configStore); interval > 0 {
		cmd.Printf("  Interval: %s\n", interval)
	} else {
		cmd.Println("  Interval: (manual sync only)")
	}

	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key := args[0]
	value, ok := configStore.Get(key)
	if !ok {
		cmd.Printf("%s is not set\n", key)
		return nil
	}

	cmd.Printf("%v\n", value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key := args[0]
	value := parseSettingValue(args[1])

	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s = %v\n", key, value)

	if strings.HasPrefix(key, "embedding.") {
		return validateEmbedding(cmd)
	}
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Print("Enter API key: ")
	apiKey := readPassword()
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key must not be empty")
	}

	if err := configStore.Set(file.KeyEmbeddingAPIKey, apiKey); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	cmd.Printf("API key saved: %s\n", maskAPIKey(apiKey))

	return validateEmbedding(cmd)
}

// validateEmbedding pings the embedding provider when the configuration
// is complete. Incomplete configurations are left alone so keys can be
// set one at a time.
func validateEmbedding(cmd *cobra.Command) error {
	settings := file.EmbeddingSettingsFrom(configStore)
	if !settings.IsConfigured() {
		return nil
	}

	cmd.Print("Validating configuration... ")
	if err := ai.ValidateEmbeddingConfig(&settings); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")
	return nil
}

// Helper functions.

// parseSettingValue keeps TOML values typed: numbers and booleans are
// stored as such, everything else stays a string. Numbers are tried
// first so "1" stays an int rather than becoming true.
func parseSettingValue(raw string) any {
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
