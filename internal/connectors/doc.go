// Package connectors provides implementations of the Connector interface
// for the supported document sources. Each connector knows how to fetch
// documents from one source type (local uploads, Google Drive).
//
// Connectors are registered with the ConnectorFactory at startup.
package connectors
