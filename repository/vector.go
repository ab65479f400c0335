package repository

import (
	"fmt"
	"strings"
)

// EmbeddingDim is the dimensionality of stored chunk embeddings. The
// embedding provider must produce vectors of exactly this length; a
// mismatch is a configuration error, not something to truncate around.
const EmbeddingDim = 768

// formatVector formats an embedding vector as a pgvector literal for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = fmt.Sprintf("%.6f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
