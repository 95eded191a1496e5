// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - ChunkSource: Splits a document into chunks and extracts its full text
//   - Normaliser: Extracts page text for one family of MIME types
//   - NormaliserRegistry: Selects appropriate normaliser
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Classifies queries and generates answers
//   - VectorStoreEngine: Creates and opens per-document vector stores
//   - PromptStore: Prompt templates
//   - ConfigStore: Application configuration
//   - Observer: Progress events
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
