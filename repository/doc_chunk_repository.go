package repository

import (
	"context"
	"fmt"

	"lorebase-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocChunkRepository handles database operations for GDD chunks
type DocChunkRepository struct {
	db *pgxpool.Pool
}

// NewDocChunkRepository creates a new doc chunk repository
func NewDocChunkRepository(db *pgxpool.Pool) *DocChunkRepository {
	return &DocChunkRepository{db: db}
}

// SimilaritySearch performs a vector search over GDD chunks.
// embedding: query embedding (must be EmbeddingDim dimensions)
// scope: resolved source/section filters (empty scope searches everything)
// threshold: minimum similarity (1 - cosine distance) to keep a chunk
// limit: maximum number of chunks to return
//
// Results are ordered by similarity descending; equal similarities break
// by insertion order (seq) so repeated searches are deterministic.
func (r *DocChunkRepository) SimilaritySearch(
	ctx context.Context,
	embedding []float64,
	scope models.RetrievalScope,
	threshold float64,
	limit int,
) ([]models.RankedCandidate, error) {
	if len(embedding) != EmbeddingDim {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDim, len(embedding))
	}

	vectorStr := formatVector(embedding)

	args := []interface{}{vectorStr, threshold}
	where := "embedding IS NOT NULL AND 1 - (embedding <=> $1::vector) >= $2"

	if len(scope.DocumentIDs) > 0 {
		args = append(args, scope.DocumentIDs)
		where += fmt.Sprintf(" AND document_id = ANY($%d)", len(args))
	}
	if scope.SectionFilter != "" {
		args = append(args, "%"+scope.SectionFilter+"%")
		where += fmt.Sprintf(" AND section_path ILIKE $%d", len(args))
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT
			id,
			document_id,
			seq,
			chunk_text,
			section_path,
			section_title,
			content_type,
			tags,
			1 - (embedding <=> $1::vector) AS similarity
		FROM doc_chunks
		WHERE %s
		ORDER BY embedding <=> $1::vector, seq
		LIMIT $%d`, where, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query doc chunks: %w", err)
	}
	defer rows.Close()

	var candidates []models.RankedCandidate
	for rows.Next() {
		chunk := &models.DocChunk{HasEmbedding: true}
		var similarity float64
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Seq,
			&chunk.Text,
			&chunk.SectionPath,
			&chunk.SectionTitle,
			&chunk.ContentType,
			&chunk.Tags,
			&similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan doc chunk: %w", err)
		}
		candidates = append(candidates, models.RankedCandidate{Chunk: chunk, Similarity: similarity})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating doc chunks: %w", err)
	}

	return candidates, nil
}

// GetBySource retrieves all chunks for a document in insertion order,
// including chunks without embeddings (preview/debugging)
func (r *DocChunkRepository) GetBySource(ctx context.Context, documentID uuid.UUID) ([]*models.DocChunk, error) {
	query := `
		SELECT id, document_id, seq, chunk_text, section_path, section_title,
			content_type, tags, embedding IS NOT NULL
		FROM doc_chunks
		WHERE document_id = $1
		ORDER BY seq`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*models.DocChunk
	for rows.Next() {
		chunk := &models.DocChunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Seq,
			&chunk.Text,
			&chunk.SectionPath,
			&chunk.SectionTitle,
			&chunk.ContentType,
			&chunk.Tags,
			&chunk.HasEmbedding,
		)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

// Insert inserts a chunk. A nil embedding stores NULL; such chunks are
// excluded from similarity search but remain retrievable by source.
func (r *DocChunkRepository) Insert(ctx context.Context, chunk *models.DocChunk, embedding []float64) error {
	if embedding != nil && len(embedding) != EmbeddingDim {
		return fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDim, len(embedding))
	}

	var vectorArg interface{}
	if embedding != nil {
		vectorArg = formatVector(embedding)
	}

	query := `
		INSERT INTO doc_chunks (
			document_id, seq, chunk_text, section_path, section_title,
			content_type, tags, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vector)
		RETURNING id`

	return r.db.QueryRow(
		ctx, query,
		chunk.DocumentID,
		chunk.Seq,
		chunk.Text,
		chunk.SectionPath,
		chunk.SectionTitle,
		chunk.ContentType,
		chunk.Tags,
		vectorArg,
	).Scan(&chunk.ID)
}

// DeleteBySource removes all chunks for a document. Re-indexing calls
// this before inserting the new chunk generation; there is no partial
// overwrite of an existing generation.
func (r *DocChunkRepository) DeleteBySource(ctx context.Context, documentID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM doc_chunks WHERE document_id = $1`, documentID)
	return err
}
