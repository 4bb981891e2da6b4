// Package normalisers turns source files into plain text. Each subpackage
// holds an extractor for one format; Registry picks between them by MIME
// type and priority.
package normalisers
