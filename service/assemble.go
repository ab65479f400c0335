package service

import (
	"fmt"
	"strings"

	"lorebase-backend/models"

	"github.com/google/uuid"
)

// Provenance records where the Nth context chunk came from. The slice is
// index-parallel with the "Chunk N:" blocks in the assembled text; the UI
// source-chunks display depends on that parity.
type Provenance struct {
	ChunkID  uuid.UUID `json:"chunk_id"`
	SourceID uuid.UUID `json:"source_id"`
	Label    string    `json:"label"` // section path or Class.Method
	Score    float64   `json:"score"`
}

// AssembledContext is the bounded context block handed to the answer
// synthesizer, plus the parallel provenance list
type AssembledContext struct {
	Text       string
	Provenance []Provenance
}

// AssembleContext renders the final chunk set into a single delimited
// block. maxChars bounds the total length by dropping the lowest-ranked
// chunks; a chunk's text is never truncated mid-chunk, which would
// corrupt citations. The first chunk is always included.
func AssembleContext(results []models.RerankedResult, maxChars int) AssembledContext {
	var assembled AssembledContext
	var builder strings.Builder

	for i, r := range results {
		block := fmt.Sprintf("Chunk %d:\n%s\n\n", i+1, r.Chunk.ChunkText())
		if maxChars > 0 && i > 0 && builder.Len()+len(block) > maxChars {
			break
		}
		builder.WriteString(block)
		assembled.Provenance = append(assembled.Provenance, Provenance{
			ChunkID:  r.Chunk.ChunkID(),
			SourceID: r.Chunk.SourceID(),
			Label:    r.Chunk.Provenance(),
			Score:    r.RerankScore,
		})
	}

	assembled.Text = strings.TrimSuffix(builder.String(), "\n")
	return assembled
}
