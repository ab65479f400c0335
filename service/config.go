package service

import (
	"os"
	"strconv"
	"time"
)

// Config holds the tunable retrieval parameters. Zero values are replaced
// with the defaults below when the service is constructed.
type Config struct {
	// TopK caps the first-stage candidate list from vector search
	TopK int
	// TopN caps the final set after reranking (or truncation when
	// reranking is disabled); must not exceed TopK
	TopN int
	// SimilarityThreshold floors first-stage candidates; chunks scoring
	// below it are excluded even inside the top-k window
	SimilarityThreshold float64
	// RerankEnabled is the server-wide default; a request may override it
	RerankEnabled bool
	// MaxContextChars bounds the assembled context block. Enforced by
	// dropping lowest-ranked whole chunks, never by truncating mid-chunk.
	MaxContextChars int

	EmbedTimeout     time.Duration
	RefineTimeout    time.Duration
	RerankTimeout    time.Duration
	SynthesisTimeout time.Duration
}

// DefaultConfig returns the baseline retrieval configuration
func DefaultConfig() Config {
	return Config{
		TopK:                20,
		TopN:                8,
		SimilarityThreshold: 0.7,
		RerankEnabled:       true,
		MaxContextChars:     24000,
		EmbedTimeout:        30 * time.Second,
		RefineTimeout:       20 * time.Second,
		RerankTimeout:       20 * time.Second,
		SynthesisTimeout:    120 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for anything unset or malformed
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v, err := strconv.Atoi(os.Getenv("RETRIEVAL_TOP_K")); err == nil && v > 0 {
		cfg.TopK = v
	}
	if v, err := strconv.Atoi(os.Getenv("RETRIEVAL_TOP_N")); err == nil && v > 0 {
		cfg.TopN = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("SIMILARITY_THRESHOLD"), 64); err == nil && v >= 0 && v <= 1 {
		cfg.SimilarityThreshold = v
	}
	if v := os.Getenv("RERANK_ENABLED"); v != "" {
		cfg.RerankEnabled = v == "true" || v == "1"
	}
	if v, err := strconv.Atoi(os.Getenv("MAX_CONTEXT_CHARS")); err == nil && v > 0 {
		cfg.MaxContextChars = v
	}
	if cfg.TopN > cfg.TopK {
		cfg.TopN = cfg.TopK
	}

	return cfg
}
