// Package sqlite stores the library in one SQLite file using
// modernc.org/sqlite, which needs no cgo. The file backs three ports:
//
//   - DocumentStore: documents and their full text
//   - ChapterCache: detected chapter spans per document
//   - ChunkStore: chunks with their embeddings, searched by cosine distance
//
// The schema lives in migrations/ as numbered .up.sql files; the number of
// the last one applied is kept in PRAGMA user_version.
//
// Embeddings are little-endian float32 blobs. Search scans the candidate
// rows and ranks them in Go, which is quick enough for a personal library.
package sqlite
