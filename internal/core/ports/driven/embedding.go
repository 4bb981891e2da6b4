package driven

import "context"

// EmbeddingService turns text into vectors for similarity search. Vectors
// from one service share a length and are comparable by cosine distance.
type EmbeddingService interface {
	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the expected vector length.
	Dimensions() int

	// ModelName identifies the model, for display and stored metadata.
	ModelName() string

	// Ping fails when the backend cannot be reached.
	Ping(ctx context.Context) error

	Close() error
}
