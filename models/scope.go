package models

import "github.com/google/uuid"

// RetrievalScope restricts which chunks a query may match. The zero value
// means "search the entire corpus". Directive parsing resolves fuzzy
// @tokens into concrete source IDs before the scope reaches the store, so
// all filters here are exact.
type RetrievalScope struct {
	// DocumentIDs / CodeFileIDs use OR semantics: a chunk matching any
	// listed source is eligible
	DocumentIDs []uuid.UUID `json:"document_ids,omitempty"`
	CodeFileIDs []uuid.UUID `json:"code_file_ids,omitempty"`

	// SectionFilter is a substring match against doc_chunks.section_path
	SectionFilter string `json:"section_filter,omitempty"`

	// ChunkTypeFilter is an exact match against code_chunks.chunk_type
	ChunkTypeFilter CodeChunkType `json:"chunk_type_filter,omitempty"`

	// MemberNames narrows code search to the selected methods after a
	// disambiguation round-trip; IncludeGlobals selects the synthetic
	// "global variables" member
	MemberNames    []string `json:"member_names,omitempty"`
	IncludeGlobals bool     `json:"include_globals,omitempty"`
}

// IsEmpty reports whether the scope imposes no restriction
func (s RetrievalScope) IsEmpty() bool {
	return len(s.DocumentIDs) == 0 &&
		len(s.CodeFileIDs) == 0 &&
		s.SectionFilter == "" &&
		s.ChunkTypeFilter == "" &&
		len(s.MemberNames) == 0 &&
		!s.IncludeGlobals
}
