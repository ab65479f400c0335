package repository

import (
	"context"
	"errors"
	"fmt"

	"lorebase-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CodeChunkRepository handles database operations for code chunks
type CodeChunkRepository struct {
	db *pgxpool.Pool
}

// NewCodeChunkRepository creates a new code chunk repository
func NewCodeChunkRepository(db *pgxpool.Pool) *CodeChunkRepository {
	return &CodeChunkRepository{db: db}
}

// SimilaritySearch performs a vector search over code chunks with the
// same ordering contract as the doc variant: similarity descending,
// ties broken by insertion order.
func (r *CodeChunkRepository) SimilaritySearch(
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

	if len(scope.CodeFileIDs) > 0 {
		args = append(args, scope.CodeFileIDs)
		where += fmt.Sprintf(" AND code_file_id = ANY($%d)", len(args))
	}
	if scope.ChunkTypeFilter != "" {
		args = append(args, scope.ChunkTypeFilter)
		where += fmt.Sprintf(" AND chunk_type = $%d", len(args))
	}
	if len(scope.MemberNames) > 0 || scope.IncludeGlobals {
		// Resumed disambiguation: only the selected members are eligible
		memberCond := ""
		if len(scope.MemberNames) > 0 {
			args = append(args, scope.MemberNames)
			memberCond = fmt.Sprintf("method_name = ANY($%d)", len(args))
		}
		if scope.IncludeGlobals {
			if memberCond != "" {
				memberCond += " OR "
			}
			memberCond += "chunk_type = 'globals'"
		}
		where += " AND (" + memberCond + ")"
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT
			id,
			code_file_id,
			seq,
			chunk_text,
			chunk_type,
			class_name,
			method_name,
			1 - (embedding <=> $1::vector) AS similarity
		FROM code_chunks
		WHERE %s
		ORDER BY embedding <=> $1::vector, seq
		LIMIT $%d`, where, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query code chunks: %w", err)
	}
	defer rows.Close()

	var candidates []models.RankedCandidate
	for rows.Next() {
		chunk := &models.CodeChunk{HasEmbedding: true}
		var similarity float64
		err := rows.Scan(
			&chunk.ID,
			&chunk.CodeFileID,
			&chunk.Seq,
			&chunk.Text,
			&chunk.ChunkType,
			&chunk.ClassName,
			&chunk.MethodName,
			&similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan code chunk: %w", err)
		}
		candidates = append(candidates, models.RankedCandidate{Chunk: chunk, Similarity: similarity})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating code chunks: %w", err)
	}

	return candidates, nil
}

// GetBySource retrieves all chunks for a code file in insertion order,
// including chunks without embeddings
func (r *CodeChunkRepository) GetBySource(ctx context.Context, codeFileID uuid.UUID) ([]*models.CodeChunk, error) {
	query := `
		SELECT id, code_file_id, seq, chunk_text, chunk_type, class_name,
			method_name, embedding IS NOT NULL
		FROM code_chunks
		WHERE code_file_id = $1
		ORDER BY seq`

	rows, err := r.db.Query(ctx, query, codeFileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*models.CodeChunk
	for rows.Next() {
		chunk := &models.CodeChunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.CodeFileID,
			&chunk.Seq,
			&chunk.Text,
			&chunk.ChunkType,
			&chunk.ClassName,
			&chunk.MethodName,
			&chunk.HasEmbedding,
		)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

// Insert inserts a chunk; a nil embedding stores NULL
func (r *CodeChunkRepository) Insert(ctx context.Context, chunk *models.CodeChunk, embedding []float64) error {
	if embedding != nil && len(embedding) != EmbeddingDim {
		return fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDim, len(embedding))
	}

	var vectorArg interface{}
	if embedding != nil {
		vectorArg = formatVector(embedding)
	}

	query := `
		INSERT INTO code_chunks (
			code_file_id, seq, chunk_text, chunk_type, class_name,
			method_name, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7::vector)
		RETURNING id`

	return r.db.QueryRow(
		ctx, query,
		chunk.CodeFileID,
		chunk.Seq,
		chunk.Text,
		chunk.ChunkType,
		chunk.ClassName,
		chunk.MethodName,
		vectorArg,
	).Scan(&chunk.ID)
}

// DeleteBySource removes all chunks for a code file before a new
// generation is inserted
func (r *CodeChunkRepository) DeleteBySource(ctx context.Context, codeFileID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM code_chunks WHERE code_file_id = $1`, codeFileID)
	return err
}

// StoredDimension reports the dimensionality of stored embeddings, or 0
// when no embedded chunk exists yet. Used by the startup dimension check.
func (r *CodeChunkRepository) StoredDimension(ctx context.Context) (int, error) {
	var dim *int
	err := r.db.QueryRow(ctx, `
		SELECT vector_dims(embedding)
		FROM code_chunks
		WHERE embedding IS NOT NULL
		LIMIT 1`).Scan(&dim)
	return dimensionFromScan(dim, err)
}

// dimensionFromScan classifies a vector_dims probe result. Only an empty
// table reads as "no embeddings yet"; any other query failure propagates
// so the startup check cannot pass against a broken store.
func dimensionFromScan(dim *int, err error) (int, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stored embedding dimension: %w", err)
	}
	if dim == nil {
		return 0, nil
	}
	return *dim, nil
}
