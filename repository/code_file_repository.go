package repository

import (
	"context"

	"lorebase-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CodeFileRepository handles database operations for indexed C# files
type CodeFileRepository struct {
	db *pgxpool.Pool
}

// NewCodeFileRepository creates a new code file repository
func NewCodeFileRepository(db *pgxpool.Pool) *CodeFileRepository {
	return &CodeFileRepository{db: db}
}

// Create creates a new code file record
func (r *CodeFileRepository) Create(ctx context.Context, file *models.CodeFile) error {
	query := `
		INSERT INTO code_files (display_name, file_path, storage_path)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		file.DisplayName,
		file.FilePath,
		file.StoragePath,
	).Scan(&file.ID, &file.CreatedAt)
}

// GetByID retrieves a code file by ID, with its derived chunk count
func (r *CodeFileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CodeFile, error) {
	file := &models.CodeFile{}
	query := `
		SELECT f.id, f.display_name, f.file_path, f.storage_path, f.created_at,
			(SELECT COUNT(*) FROM code_chunks c WHERE c.code_file_id = f.id) AS chunk_count
		FROM code_files f
		WHERE f.id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&file.ID,
		&file.DisplayName,
		&file.FilePath,
		&file.StoragePath,
		&file.CreatedAt,
		&file.ChunkCount,
	)
	if err != nil {
		return nil, err
	}

	return file, nil
}

// List retrieves all code files with derived chunk counts
func (r *CodeFileRepository) List(ctx context.Context) ([]*models.CodeFile, error) {
	query := `
		SELECT f.id, f.display_name, f.file_path, f.storage_path, f.created_at,
			(SELECT COUNT(*) FROM code_chunks c WHERE c.code_file_id = f.id) AS chunk_count
		FROM code_files f
		ORDER BY f.created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*models.CodeFile
	for rows.Next() {
		file := &models.CodeFile{}
		err := rows.Scan(
			&file.ID,
			&file.DisplayName,
			&file.FilePath,
			&file.StoragePath,
			&file.CreatedAt,
			&file.ChunkCount,
		)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

// ListMembers returns the selectable members of a code file: one entry
// per method plus a "global variables" pseudo-member when the file has
// globals chunks. Ordered by insertion order for a stable selection list.
func (r *CodeFileRepository) ListMembers(ctx context.Context, codeFileID uuid.UUID) ([]models.Member, error) {
	query := `
		SELECT DISTINCT ON (class_name, COALESCE(method_name, ''), chunk_type)
			COALESCE(method_name, ''), chunk_type, class_name, seq
		FROM code_chunks
		WHERE code_file_id = $1 AND chunk_type IN ('method', 'globals')
		ORDER BY class_name, COALESCE(method_name, ''), chunk_type, seq`

	rows, err := r.db.Query(ctx, query, codeFileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var name, className string
		var kind models.CodeChunkType
		var seq int64
		if err := rows.Scan(&name, &kind, &className, &seq); err != nil {
			return nil, err
		}
		if kind == models.ChunkTypeGlobals {
			name = "global variables"
		}
		members = append(members, models.Member{
			Name:      name,
			Kind:      kind,
			ClassName: className,
		})
	}

	return members, rows.Err()
}

// CountChunks returns the number of chunks referencing a code file
func (r *CodeFileRepository) CountChunks(ctx context.Context, codeFileID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM code_chunks WHERE code_file_id = $1`, codeFileID,
	).Scan(&count)
	return count, err
}

// Delete deletes a code file; chunks cascade via the foreign key
func (r *CodeFileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM code_files WHERE id = $1`, id)
	return err
}
