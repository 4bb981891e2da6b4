// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: document bodies and the catalogue
//   - ChunkStore: chunk embeddings and similarity queries
//   - EmbeddingService: turns text into vectors for the ChunkStore
//   - Chunker: cuts documents into retrieval units
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil; the application degrades gracefully:
//
//   - LLMService: generation. Without it, ask/compare/chapter analysis are disabled.
//   - ChapterCache: detected chapter spans. Without it, detection reruns on every call.
//   - PassageIndex: keyword lookup over chunks (bleve).
//   - PromptStore: user-editable prompt templates. Without it, built-in templates are used.
//   - Extractor: text extraction for imported files.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or postprocessor package
package driven
