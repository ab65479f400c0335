package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lorebase-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReranker struct {
	scores   []RerankScore
	err      error
	gotQuery string
}

func (f *fakeReranker) Rerank(ctx context.Context, query string, documents []string) ([]RerankScore, error) {
	f.gotQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

func TestRerankReordersByCrossEncoderScore(t *testing.T) {
	candidates := []models.RankedCandidate{
		docCandidate(0.90, "similar but off-topic"),
		docCandidate(0.80, "actually relevant"),
	}
	client := &fakeReranker{scores: []RerankScore{
		{Index: 1, Score: 0.99},
		{Index: 0, Score: 0.30},
	}}

	got := rerankCandidates(context.Background(), client, "question", candidates, 5, time.Second)

	require.Len(t, got, 2)
	assert.Equal(t, "actually relevant", got[0].Chunk.ChunkText())
	assert.Equal(t, 0.99, got[0].RerankScore)
	assert.Equal(t, "similar but off-topic", got[1].Chunk.ChunkText())
}

func TestRerankTruncatesToTopN(t *testing.T) {
	candidates := []models.RankedCandidate{
		docCandidate(0.9, "a"),
		docCandidate(0.8, "b"),
		docCandidate(0.7, "c"),
	}
	client := &fakeReranker{scores: []RerankScore{
		{Index: 2, Score: 0.9},
		{Index: 0, Score: 0.8},
		{Index: 1, Score: 0.7},
	}}

	got := rerankCandidates(context.Background(), client, "q", candidates, 2, time.Second)

	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Chunk.ChunkText())
	assert.Equal(t, "a", got[1].Chunk.ChunkText())
}

func TestRerankFailureFallsBackToSimilarityOrder(t *testing.T) {
	candidates := []models.RankedCandidate{
		docCandidate(0.9, "a"),
		docCandidate(0.8, "b"),
	}
	client := &fakeReranker{err: errors.New("rerank API down")}

	got := rerankCandidates(context.Background(), client, "q", candidates, 5, time.Second)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Chunk.ChunkText())
	assert.Equal(t, 0.9, got[0].RerankScore)
	assert.Equal(t, "b", got[1].Chunk.ChunkText())
}

func TestRerankOutOfRangeIndexFallsBack(t *testing.T) {
	candidates := []models.RankedCandidate{docCandidate(0.9, "a")}
	client := &fakeReranker{scores: []RerankScore{{Index: 7, Score: 0.5}}}

	got := rerankCandidates(context.Background(), client, "q", candidates, 5, time.Second)

	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Chunk.ChunkText())
	assert.Equal(t, 0.9, got[0].RerankScore)
}

func TestRerankNilClientUsesSimilarityOrder(t *testing.T) {
	candidates := []models.RankedCandidate{
		docCandidate(0.9, "a"),
		docCandidate(0.8, "b"),
		docCandidate(0.7, "c"),
	}

	got := rerankCandidates(context.Background(), nil, "q", candidates, 2, time.Second)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Chunk.ChunkText())
	assert.Equal(t, "b", got[1].Chunk.ChunkText())
}

func TestRerankScoresAgainstOriginalQuery(t *testing.T) {
	candidates := []models.RankedCandidate{docCandidate(0.9, "a")}
	client := &fakeReranker{scores: []RerankScore{{Index: 0, Score: 0.5}}}

	rerankCandidates(context.Background(), client, "the original question", candidates, 5, time.Second)

	assert.Equal(t, "the original question", client.gotQuery)
}
