package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lorebase-backend/models"
)

// ChunkSearcher is the chunk store capability: similarity search with
// scope filters. Implemented by the doc and code chunk repositories.
type ChunkSearcher interface {
	SimilaritySearch(
		ctx context.Context,
		embedding []float64,
		scope models.RetrievalScope,
		threshold float64,
		limit int,
	) ([]models.RankedCandidate, error)
}

// SearchGateway translates a (refined query, scope) pair into an ordered
// candidate list: embed the query, search the store, floor-filter by
// threshold, order by similarity with a stable tie-break, cap at top-k.
type SearchGateway struct {
	embedder     Embedder
	embedTimeout time.Duration
}

// NewSearchGateway creates a search gateway
func NewSearchGateway(embedder Embedder, embedTimeout time.Duration) *SearchGateway {
	if embedTimeout <= 0 {
		embedTimeout = 30 * time.Second
	}
	return &SearchGateway{embedder: embedder, embedTimeout: embedTimeout}
}

// Search executes the first retrieval stage. An embedding failure is
// fatal for the request: it surfaces as ErrEmbeddingUnavailable so the
// caller can distinguish "search failed" from "nothing matched".
// An empty return with a nil error means no chunk cleared the threshold.
func (g *SearchGateway) Search(
	ctx context.Context,
	store ChunkSearcher,
	query string,
	scope models.RetrievalScope,
	threshold float64,
	topK int,
) ([]models.RankedCandidate, error) {
	if g.embedder == nil {
		return nil, fmt.Errorf("%w: no embedder bound", ErrEmbeddingUnavailable)
	}

	embedCtx, cancel := context.WithTimeout(ctx, g.embedTimeout)
	defer cancel()

	embedding, err := g.embedder.EmbedQuery(embedCtx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	candidates, err := store.SimilaritySearch(ctx, embedding, scope, threshold, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	// The store already filters and orders; re-apply both so the gateway
	// contract holds for any ChunkSearcher implementation. The stable
	// sort preserves the store's insertion-order tie-break.
	filtered := candidates[:0]
	for _, c := range candidates {
		if c.Similarity >= threshold {
			filtered = append(filtered, c)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Similarity > filtered[j].Similarity
	})
	if len(filtered) > topK {
		filtered = filtered[:topK]
	}

	return filtered, nil
}
