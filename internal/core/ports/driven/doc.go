// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Connector: Fetches documents from a data source
//   - Normaliser: Extracts plain text from raw documents
//   - NormaliserRegistry: Selects the appropriate normaliser
//   - DocumentStore: Document record persistence
//   - IndexStore: Persisted chunk entries with vector and keyword search
//   - SourceStore: Source configuration persistence
//   - SyncStateStore: Sync progress persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it,
//     retrieval runs keyword-only and ingestion stores unembedded
//     entries for keyword search.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
