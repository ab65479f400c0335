package models

import (
	"fmt"

	"github.com/google/uuid"
)

// CodeChunkType classifies syntax-aware code chunks
type CodeChunkType string

const (
	ChunkTypeMethod    CodeChunkType = "method"
	ChunkTypeClass     CodeChunkType = "class"
	ChunkTypeStruct    CodeChunkType = "struct"
	ChunkTypeInterface CodeChunkType = "interface"
	ChunkTypeEnum      CodeChunkType = "enum"
	// ChunkTypeGlobals holds file-level fields/properties that don't belong
	// to any single method; surfaced as the "global variables" pseudo-member
	// during disambiguation
	ChunkTypeGlobals CodeChunkType = "globals"
)

// Chunk is the atomic retrievable unit, shared by both corpora.
// Concrete variants are DocChunk (GDD paragraphs) and CodeChunk
// (method/class-level C# chunks); callers dispatch with a type switch.
type Chunk interface {
	ChunkID() uuid.UUID
	SourceID() uuid.UUID
	ChunkText() string
	// Provenance is the human-readable citation label shown alongside the
	// chunk in the source list (section path for docs, Class.Method for code)
	Provenance() string
}

// DocChunk is a semantic paragraph chunk from a game-design document
type DocChunk struct {
	ID           uuid.UUID `json:"id"`
	DocumentID   uuid.UUID `json:"document_id"`
	Seq          int64     `json:"seq"`
	Text         string    `json:"text"`
	SectionPath  string    `json:"section_path"`  // e.g. "4. Interface / 4.1 List"
	SectionTitle string    `json:"section_title"`
	ContentType  string    `json:"content_type"` // ui/logic/flow/table/...
	Tags         []string  `json:"tags,omitempty"`
	HasEmbedding bool      `json:"has_embedding"`
}

func (c *DocChunk) ChunkID() uuid.UUID  { return c.ID }
func (c *DocChunk) SourceID() uuid.UUID { return c.DocumentID }
func (c *DocChunk) ChunkText() string   { return c.Text }

func (c *DocChunk) Provenance() string {
	if c.SectionPath != "" {
		return c.SectionPath
	}
	return c.SectionTitle
}

// CodeChunk is a syntax-aware chunk from a C# source file
type CodeChunk struct {
	ID           uuid.UUID     `json:"id"`
	CodeFileID   uuid.UUID     `json:"code_file_id"`
	Seq          int64         `json:"seq"`
	Text         string        `json:"text"`
	ChunkType    CodeChunkType `json:"chunk_type"`
	ClassName    string        `json:"class_name"`
	MethodName   *string       `json:"method_name,omitempty"` // nil for class-level chunks
	HasEmbedding bool          `json:"has_embedding"`
}

func (c *CodeChunk) ChunkID() uuid.UUID  { return c.ID }
func (c *CodeChunk) SourceID() uuid.UUID { return c.CodeFileID }
func (c *CodeChunk) ChunkText() string   { return c.Text }

func (c *CodeChunk) Provenance() string {
	switch {
	case c.MethodName != nil:
		return fmt.Sprintf("%s.%s", c.ClassName, *c.MethodName)
	case c.ChunkType == ChunkTypeGlobals:
		return c.ClassName + " (global variables)"
	default:
		return c.ClassName
	}
}

// RankedCandidate is the vector search output: a chunk with its
// first-stage similarity (1 - cosine distance)
type RankedCandidate struct {
	Chunk      Chunk   `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// RerankedResult is a candidate after cross-encoder scoring
type RerankedResult struct {
	Chunk       Chunk   `json:"chunk"`
	RerankScore float64 `json:"rerank_score"`
}
