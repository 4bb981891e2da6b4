// Package embedding holds helpers shared by the embedding adapters and the
// vector stores.
package embedding

import (
	"fmt"
	"math"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched, empty, or zero-norm vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MatchDimensions fails with domain.ErrInvalidConfig when a stored vector
// and the query come from models of different sizes. Empty vectors pass.
func MatchDimensions(query, stored []float32) error {
	if len(query) == 0 || len(stored) == 0 || len(query) == len(stored) {
		return nil
	}
	return fmt.Errorf("%w: query embedding has %d dimensions but the library was indexed with %d; "+
		"reindex required after changing the embedding model: marginalia docs reindex --all",
		domain.ErrInvalidConfig, len(query), len(stored))
}

// CosineDistance is 1 - CosineSimilarity. Lower is closer; 0 is identical.
func CosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

// Normalize scales v to unit length in place. A zero vector is left alone.
func Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// ToFloat32 narrows a float64 vector as returned by JSON APIs.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
