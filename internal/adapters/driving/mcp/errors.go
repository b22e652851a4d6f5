// Package mcp provides an MCP (Model Context Protocol) server adapter for Quarry.
// It enables AI assistants like Claude to retrieve from the local index.
package mcp

import "errors"

// ErrMissingRetrieveService is returned when the retrieve service is not provided.
var ErrMissingRetrieveService = errors.New("mcp: retrieve service is required")
