package models

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an uploaded game-design document
type Document struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	StoragePath string    `json:"storage_path"`
	DocCategory string    `json:"doc_category,omitempty"`
	// ChunkCount is derived from the doc_chunks table, never stored
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// CodeFile represents an indexed C# source file
type CodeFile struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	FilePath    string    `json:"file_path"`
	StoragePath string    `json:"storage_path"`
	ChunkCount  int       `json:"chunk_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Member is a selectable sub-member of a code file, presented during
// method disambiguation
type Member struct {
	Name      string        `json:"name"`
	Kind      CodeChunkType `json:"kind"`
	ClassName string        `json:"class_name"`
}
