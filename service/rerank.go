package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"lorebase-backend/models"
)

// RerankScore pairs a candidate's original index with its cross-encoder
// relevance score
type RerankScore struct {
	Index int     `json:"index"`
	Score float64 `json:"relevance_score"`
}

// RerankClient is the cross-encoder reranking capability
type RerankClient interface {
	Rerank(ctx context.Context, query string, documents []string) ([]RerankScore, error)
}

// HTTPReranker calls a Cohere-compatible rerank endpoint
type HTTPReranker struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewHTTPReranker creates a reranker against a Cohere-compatible API
func NewHTTPReranker(endpoint, apiKey, model string) (*HTTPReranker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("rerank API key is required")
	}
	if endpoint == "" {
		endpoint = "https://api.cohere.ai/v1/rerank"
	}
	if model == "" {
		model = "rerank-english-v3.0"
	}
	return &HTTPReranker{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
}

type rerankResponse struct {
	Results []RerankScore `json:"results"`
}

// Rerank scores documents against the query and returns (index, score)
// pairs sorted by score descending
func (r *HTTPReranker) Rerank(ctx context.Context, query string, documents []string) ([]RerankScore, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	jsonData, err := json.Marshal(rerankRequest{
		Query:     query,
		Documents: documents,
		Model:     r.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp rerankResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := apiResp.Results
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// rerankCandidates re-scores candidates against the ORIGINAL query (not
// the refined one: reranking should track user intent, not the HYDE
// expansion) and truncates to topN. A nil client, a disabled toggle, or
// any rerank failure degrades to the similarity order.
func rerankCandidates(
	ctx context.Context,
	client RerankClient,
	originalQuery string,
	candidates []models.RankedCandidate,
	topN int,
	timeout time.Duration,
) []models.RerankedResult {
	if client == nil {
		return similarityOrder(candidates, topN)
	}

	return attemptOr("reranking", similarityOrder(candidates, topN), func() ([]models.RerankedResult, error) {
		rerankCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		texts := make([]string, len(candidates))
		for i, c := range candidates {
			texts[i] = c.Chunk.ChunkText()
		}

		scores, err := client.Rerank(rerankCtx, originalQuery, texts)
		if err != nil {
			return nil, err
		}

		results := make([]models.RerankedResult, 0, topN)
		for _, s := range scores {
			if len(results) == topN {
				break
			}
			if s.Index < 0 || s.Index >= len(candidates) {
				return nil, fmt.Errorf("rerank returned out-of-range index %d", s.Index)
			}
			results = append(results, models.RerankedResult{
				Chunk:       candidates[s.Index].Chunk,
				RerankScore: s.Score,
			})
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("rerank returned no results")
		}
		return results, nil
	})
}

// similarityOrder keeps the first-stage order, truncated to topN, with
// the similarity carried over as the final score
func similarityOrder(candidates []models.RankedCandidate, topN int) []models.RerankedResult {
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	results := make([]models.RerankedResult, len(candidates))
	for i, c := range candidates {
		results[i] = models.RerankedResult{Chunk: c.Chunk, RerankScore: c.Similarity}
	}
	return results
}
