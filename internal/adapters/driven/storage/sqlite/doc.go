// Package sqlite provides a SQLite-backed vector store engine.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Each index directory holds one
// database file, index.db, with a single records table:
//
//   - position: the chunk's 0-based position in the document
//   - content and page: the chunk itself
//   - embedding: little-endian float32 blob
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Search
//
// Search is exact: every embedding is scored by cosine similarity. Embeddings
// are read from the database once per handle and cached until the next Add.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
