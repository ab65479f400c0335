package repository

import (
	"context"

	"lorebase-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository handles database operations for design documents
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create creates a new document record
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (display_name, storage_path, doc_category)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		doc.DisplayName,
		doc.StoragePath,
		doc.DocCategory,
	).Scan(&doc.ID, &doc.CreatedAt)
}

// GetByID retrieves a document by ID, with its derived chunk count
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc := &models.Document{}
	query := `
		SELECT d.id, d.display_name, d.storage_path, d.doc_category, d.created_at,
			(SELECT COUNT(*) FROM doc_chunks c WHERE c.document_id = d.id) AS chunk_count
		FROM documents d
		WHERE d.id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.DisplayName,
		&doc.StoragePath,
		&doc.DocCategory,
		&doc.CreatedAt,
		&doc.ChunkCount,
	)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// List retrieves all documents with derived chunk counts
func (r *DocumentRepository) List(ctx context.Context) ([]*models.Document, error) {
	query := `
		SELECT d.id, d.display_name, d.storage_path, d.doc_category, d.created_at,
			(SELECT COUNT(*) FROM doc_chunks c WHERE c.document_id = d.id) AS chunk_count
		FROM documents d
		ORDER BY d.created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc := &models.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.DisplayName,
			&doc.StoragePath,
			&doc.DocCategory,
			&doc.CreatedAt,
			&doc.ChunkCount,
		)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// ListSections returns the distinct section paths indexed for a document,
// used by the directive parser to resolve @section tokens
func (r *DocumentRepository) ListSections(ctx context.Context, documentID uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT section_path
		FROM doc_chunks
		WHERE document_id = $1 AND section_path <> ''
		ORDER BY section_path`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}

	return sections, rows.Err()
}

// CountChunks returns the number of chunks referencing a document
func (r *DocumentRepository) CountChunks(ctx context.Context, documentID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM doc_chunks WHERE document_id = $1`, documentID,
	).Scan(&count)
	return count, err
}

// Delete deletes a document; chunks cascade via the foreign key so no
// orphan chunks survive
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}
