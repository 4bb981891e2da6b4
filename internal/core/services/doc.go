// Package services implements the driving ports: importing documents,
// answering questions, chapter analysis, settings and statistics.
//
// Services depend only on driven ports. Optional backends (generation,
// embeddings, the passage index) may be nil; operations that need a
// missing backend fail with the matching domain error.
package services
