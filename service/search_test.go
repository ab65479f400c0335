package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lorebase-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vector []float64
	err    error
	calls  int
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) Dimension() int { return len(f.vector) }

type fakeSearcher struct {
	candidates []models.RankedCandidate
	err        error
	gotScope   models.RetrievalScope
}

func (f *fakeSearcher) SimilaritySearch(
	ctx context.Context,
	embedding []float64,
	scope models.RetrievalScope,
	threshold float64,
	limit int,
) ([]models.RankedCandidate, error) {
	f.gotScope = scope
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func docCandidate(similarity float64, text string) models.RankedCandidate {
	return models.RankedCandidate{
		Chunk:      &models.DocChunk{ID: uuid.New(), DocumentID: uuid.New(), Text: text},
		Similarity: similarity,
	}
}

func TestSearchFiltersBelowThreshold(t *testing.T) {
	searcher := &fakeSearcher{candidates: []models.RankedCandidate{
		docCandidate(0.92, "a"),
		docCandidate(0.71, "b"),
		docCandidate(0.69, "c"),
		docCandidate(0.40, "d"),
	}}
	g := NewSearchGateway(&fakeEmbedder{vector: []float64{1, 0}}, time.Second)

	got, err := g.Search(context.Background(), searcher, "q", models.RetrievalScope{}, 0.7, 10)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0.92, got[0].Similarity)
	assert.Equal(t, 0.71, got[1].Similarity)
}

func TestSearchCapsAtTopK(t *testing.T) {
	searcher := &fakeSearcher{candidates: []models.RankedCandidate{
		docCandidate(0.95, "a"),
		docCandidate(0.90, "b"),
		docCandidate(0.85, "c"),
	}}
	g := NewSearchGateway(&fakeEmbedder{vector: []float64{1, 0}}, time.Second)

	got, err := g.Search(context.Background(), searcher, "q", models.RetrievalScope{}, 0.5, 2)

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearchOrdersBySimilarityKeepingTies(t *testing.T) {
	first := docCandidate(0.80, "first inserted")
	second := docCandidate(0.80, "second inserted")
	searcher := &fakeSearcher{candidates: []models.RankedCandidate{
		docCandidate(0.75, "low"),
		first,
		second,
	}}
	g := NewSearchGateway(&fakeEmbedder{vector: []float64{1, 0}}, time.Second)

	got, err := g.Search(context.Background(), searcher, "q", models.RetrievalScope{}, 0.5, 10)

	require.NoError(t, err)
	require.Len(t, got, 3)
	// Equal scores keep the store's order
	assert.Equal(t, "first inserted", got[0].Chunk.ChunkText())
	assert.Equal(t, "second inserted", got[1].Chunk.ChunkText())
	assert.Equal(t, "low", got[2].Chunk.ChunkText())
}

func TestSearchEmbeddingFailureIsFatal(t *testing.T) {
	g := NewSearchGateway(&fakeEmbedder{err: errors.New("quota exceeded")}, time.Second)

	_, err := g.Search(context.Background(), &fakeSearcher{}, "q", models.RetrievalScope{}, 0.7, 10)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestSearchNilEmbedderIsFatal(t *testing.T) {
	g := NewSearchGateway(nil, time.Second)

	_, err := g.Search(context.Background(), &fakeSearcher{}, "q", models.RetrievalScope{}, 0.7, 10)

	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	g := NewSearchGateway(&fakeEmbedder{vector: []float64{1, 0}}, time.Second)

	got, err := g.Search(context.Background(), &fakeSearcher{}, "q", models.RetrievalScope{}, 0.7, 10)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchPassesScopeThrough(t *testing.T) {
	searcher := &fakeSearcher{}
	g := NewSearchGateway(&fakeEmbedder{vector: []float64{1, 0}}, time.Second)
	scope := models.RetrievalScope{SectionFilter: "Economy"}

	_, err := g.Search(context.Background(), searcher, "q", scope, 0.7, 10)

	require.NoError(t, err)
	assert.Equal(t, "Economy", searcher.gotScope.SectionFilter)
}
