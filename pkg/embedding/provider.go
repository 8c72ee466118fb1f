// FILE: pkg/embedding/provider.go
// PURPOSE: Embedding provider contract shared by the semantic engines

package embedding

import (
	"context"
	"math"
)

// Task types hint the provider how the embedding will be used. Providers
// that do not distinguish (Ollama, Jina) ignore the hint.
const (
	TaskQuery    = "RETRIEVAL_QUERY"
	TaskDocument = "RETRIEVAL_DOCUMENT"
)

// Provider generates a unit-length embedding vector for a piece of text.
// Implementations must honor context cancellation on the network call and
// must return normalized vectors so cosine similarity reduces to a dot
// product.
type Provider interface {
	Generate(ctx context.Context, text string, taskType string) ([]float32, error)
}

// Normalize scales a vector to unit length. A zero vector is returned
// unchanged.
func Normalize(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
