// Package textstats computes lexical statistics over plain text:
// frequent content words, vocabulary overlap and shared word sequences.
// Nothing here calls a model; results are deterministic.
package textstats
