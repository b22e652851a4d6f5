package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/adapters/driving/mcp"
	"github.com/quarrylabs/quarry/internal/logger"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --http to serve the streamable HTTP transport instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default, for Claude Desktop)
  quarry mcp

  # HTTP mode (for MCP Inspector, remote access)
  quarry mcp --http :8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "quarry": {
        "command": "/path/to/quarry",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "HTTP listen address (empty = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ports := &mcp.Ports{
		Retrieve:  retrieveService,
		Source:    sourceService,
		Documents: documentStore,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if backgroundSync != nil {
		go func() {
			if err := backgroundSync.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Background sync stopped: %v", err)
			}
		}()
		defer backgroundSync.Stop() //nolint:errcheck
	}

	if mcpHTTPAddr != "" {
		display := mcpHTTPAddr
		if strings.HasPrefix(display, ":") {
			display = "localhost" + display
		}
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", display)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}

	return server.Run(cmd.Context())
}
