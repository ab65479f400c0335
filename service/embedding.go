package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Embedder maps text to a fixed-length dense vector
type Embedder interface {
	// EmbedQuery embeds a search query. Must fail loudly, never return a
	// zero vector on error.
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
	// Dimension returns the provider's output dimensionality
	Dimension() int
}

const (
	geminiEmbeddingAPI = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	geminiBatchAPI     = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:batchEmbedContents"
	maxEmbedRetries    = 3
	initialBackoff     = time.Second
)

// GeminiEmbedder embeds text via the Gemini embedding REST API
type GeminiEmbedder struct {
	apiKey    string
	dimension int
	client    *http.Client
}

// NewGeminiEmbedder creates a Gemini embedding client
func NewGeminiEmbedder(apiKey string, dimension int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}
	return &GeminiEmbedder{
		apiKey:    apiKey,
		dimension: dimension,
		client:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Dimension returns the configured output dimensionality
func (e *GeminiEmbedder) Dimension() int {
	return e.dimension
}

type embeddingRequest struct {
	Model                string       `json:"model"`
	Content              contentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

type contentInput struct {
	Parts []partInput `json:"parts"`
}

type partInput struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Embedding embeddingData `json:"embedding"`
}

type embeddingData struct {
	Values []float64 `json:"values"`
}

// batchEmbeddingItem is the structure returned by the batch API (no
// nested "embedding" key)
type batchEmbeddingItem struct {
	Values []float64 `json:"values"`
}

type batchEmbeddingRequest struct {
	Requests []embeddingRequest `json:"requests"`
}

type batchEmbeddingResponse struct {
	Embeddings []batchEmbeddingItem `json:"embeddings"`
}

// EmbedQuery embeds a retrieval query with retry and exponential backoff
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return e.embed(ctx, text, "RETRIEVAL_QUERY")
}

// EmbedDocument embeds an indexable chunk (used by the ingestion tool)
func (e *GeminiEmbedder) EmbedDocument(ctx context.Context, text string) ([]float64, error) {
	return e.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

func (e *GeminiEmbedder) embed(ctx context.Context, text, taskType string) ([]float64, error) {
	reqBody := embeddingRequest{
		Model: "models/gemini-embedding-001",
		Content: contentInput{
			Parts: []partInput{{Text: text}},
		},
		TaskType:             taskType,
		OutputDimensionality: e.dimension,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := initialBackoff
	for attempt := 0; attempt < maxEmbedRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", geminiEmbeddingAPI, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", e.apiKey)

		resp, err := e.client.Do(req)
		if err != nil {
			if attempt == maxEmbedRetries-1 {
				return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxEmbedRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp embeddingResponse
			decodeErr := json.NewDecoder(resp.Body).Decode(&apiResp)
			resp.Body.Close()
			if decodeErr != nil {
				if attempt == maxEmbedRetries-1 {
					return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
				}
				continue
			}
			vec := apiResp.Embedding.Values
			if len(vec) != e.dimension {
				return nil, fmt.Errorf("provider returned %d dimensions, expected %d", len(vec), e.dimension)
			}
			normalize(vec)
			return vec, nil
		}

		resp.Body.Close()

		// Don't retry on 400 or 401 errors
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("embedding API error: %d", resp.StatusCode)
		}
		if attempt == maxEmbedRetries-1 {
			return nil, fmt.Errorf("embedding API error after %d attempts: %d", maxEmbedRetries, resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("embedding request exhausted retries")
}

// EmbedBatch embeds up to 100 document chunks in one call via the batch
// endpoint. Returns one vector per input, in input order.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > 100 {
		return nil, fmt.Errorf("batch size %d exceeds API limit of 100", len(texts))
	}

	batch := batchEmbeddingRequest{Requests: make([]embeddingRequest, len(texts))}
	for i, text := range texts {
		batch.Requests[i] = embeddingRequest{
			Model: "models/gemini-embedding-001",
			Content: contentInput{
				Parts: []partInput{{Text: text}},
			},
			TaskType:             "RETRIEVAL_DOCUMENT",
			OutputDimensionality: e.dimension,
		}
	}

	jsonData, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", geminiBatchAPI, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send batch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("batch embedding API error: %d", resp.StatusCode)
	}

	var apiResp batchEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode batch response: %w", err)
	}
	if len(apiResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("batch returned %d embeddings for %d inputs", len(apiResp.Embeddings), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for i, item := range apiResp.Embeddings {
		if len(item.Values) != e.dimension {
			return nil, fmt.Errorf("batch item %d has %d dimensions, expected %d", i, len(item.Values), e.dimension)
		}
		normalize(item.Values)
		vectors[i] = item.Values
	}

	return vectors, nil
}

// normalize scales a vector to unit length in place
func normalize(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
}
